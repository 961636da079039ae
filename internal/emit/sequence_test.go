package emit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

func TestSequenceContribute(t *testing.T) {
	r := standardRegistry()
	clk, _ := NewClockSignal("clk", 10, "0")
	it, _ := NewIteratorSignal("i", 3)
	seq, err := NewConstantVector("data", "logic", 8, "i", []string{"1", "10", "11"})
	if err != nil {
		t.Fatalf("NewConstantVector: %v", err)
	}
	for _, e := range []Emitter{clk, it, seq} {
		if err := e.Contribute(r); err != nil {
			t.Fatalf("%s: %v", e.Name(), err)
		}
	}

	wantExtern := []string{
		"var logic clk;",
		"var logic[2:0] i;",
		"var logic[7:0] data;",
		"var logic[7:0] data_tv[2:0];",
	}
	if diff := cmp.Diff(wantExtern, linesOf(t, r, block.Extern, nil)); diff != "" {
		t.Fatalf("extern mismatch (-want +got):\n%s", diff)
	}
	wantInitial := []string{"clk = 1'b0;", `$readmemb("data_tv.mem", data_tv);`}
	if diff := cmp.Diff(wantInitial, linesOf(t, r, block.Initial, nil)); diff != "" {
		t.Fatalf("initial mismatch (-want +got):\n%s", diff)
	}
	wantClocked := []string{"always @(posedge clk) begin", "i += 1;", "data = data_tv[i];"}
	if diff := cmp.Diff(wantClocked, linesOf(t, r, block.Always, block.Tagged(block.TagClock))); diff != "" {
		t.Fatalf("clocked mismatch (-want +got):\n%s", diff)
	}
}

func TestOneBitSequenceTable(t *testing.T) {
	r := block.NewRegistry(block.Extern, block.Initial)
	seq, _ := NewConstantVector("en", "logic", 1, "i", []string{"0", "1"})
	err := seq.Contribute(r)
	var missing *block.MissingBlockError
	if !errors.As(err, &missing) || !missing.Clocked {
		t.Fatalf("expected clocked MissingBlockError, got %v", err)
	}
	want := []string{"var logic en;", "var logic en_tv[1:0];"}
	if diff := cmp.Diff(want, linesOf(t, r, block.Extern, nil)); diff != "" {
		t.Fatalf("extern mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateOverrideReplaces(t *testing.T) {
	seq, _ := NewNamedSequence("s", "logic", 1, "i", NewClockSource(), Unbounded)
	seq.SetElements([]string{"1", "1", "1", "1", "1", "1", "1"})
	if err := seq.Generate(5); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "1", "0", "1", "0"}, seq.Sequence); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateUsesDeclaredLength(t *testing.T) {
	src, _ := NewCounterSource(2, 0)
	seq, _ := NewNamedSequence("s", "logic", 2, "i", src, 6)
	if err := seq.Generate(-1); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "1", "10", "11", "0", "1"}, seq.Sequence); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateUnboundedWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	seq, _ := NewNamedSequence("s", "logic", 1, "i", NewClockSource(), Unbounded)
	seq.SetLogger(zap.New(core))
	seq.SetElements([]string{"1", "0"})

	if err := seq.Generate(0); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "0"}, seq.Sequence); diff != "" {
		t.Fatalf("sequence changed (-want +got):\n%s", diff)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.WarnLevel || entry.ContextMap()["sequence"] != "s" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestGenerateExhausted(t *testing.T) {
	seq, _ := NewNamedSequence("s", "logic", 1, "i", NewSliceSource("1", "0"), 3)
	seq.SetElements([]string{"1"})

	err := seq.Generate(0)
	var exhausted *GeneratorExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected GeneratorExhaustedError, got %v", err)
	}
	if exhausted.Requested != 3 || exhausted.Pulled != 2 {
		t.Fatalf("unexpected error detail: %+v", exhausted)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected error to wrap ErrExhausted")
	}
	if diff := cmp.Diff([]string{"1"}, seq.Sequence); diff != "" {
		t.Fatalf("sequence changed on failure (-want +got):\n%s", diff)
	}
}

func TestGenerateWithoutSource(t *testing.T) {
	seq, _ := NewNamedSequence("s", "logic", 1, "i", nil, 2)
	var exhausted *GeneratorExhaustedError
	if err := seq.Generate(0); !errors.As(err, &exhausted) {
		t.Fatalf("expected GeneratorExhaustedError, got %v", err)
	}
}

func TestGenerateSourceError(t *testing.T) {
	boom := errors.New("boom")
	seq, _ := NewNamedSequence("s", "logic", 1, "i", SourceFunc(func() (string, error) { return "", boom }), 2)
	err := seq.Generate(0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error to propagate, got %v", err)
	}
	var exhausted *GeneratorExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatalf("non-exhaustion error reported as exhaustion")
	}
}

func TestAddAndSetElements(t *testing.T) {
	seq, _ := NewNamedSequence("s", "logic", 2, "i", nil, Unbounded)
	seq.AddElements([]string{"01"})
	seq.AddElements([]string{"10", "11"})
	if diff := cmp.Diff([]string{"01", "10", "11"}, seq.Sequence); diff != "" {
		t.Fatalf("after add (-want +got):\n%s", diff)
	}

	values := []string{"00"}
	seq.SetElements(values)
	values[0] = "zz"
	if diff := cmp.Diff([]string{"00"}, seq.Sequence); diff != "" {
		t.Fatalf("after set (-want +got):\n%s", diff)
	}
}

func TestWriteMemPadsToWidth(t *testing.T) {
	seq, _ := NewConstantVector("v", "logic", 2, "i", []string{"1", "0", "11"})
	var buf bytes.Buffer
	if err := seq.WriteMem(&buf); err != nil {
		t.Fatalf("WriteMem: %v", err)
	}
	if got, want := buf.String(), "01\n00\n11\n"; got != want {
		t.Fatalf("WriteMem = %q, want %q", got, want)
	}
}

func TestMaterializeToFile(t *testing.T) {
	dir := t.TempDir()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(oldCwd) }()

	seq, _ := NewConstantVector("data", "logic", 2, "i", []string{"1", "0", "11"})
	if err := seq.MaterializeToFile(); err != nil {
		t.Fatalf("MaterializeToFile: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "data_tv.mem"))
	if err != nil {
		t.Fatalf("read mem file: %v", err)
	}
	if got, want := string(raw), "01\n00\n11\n"; got != want {
		t.Fatalf("mem file = %q, want %q", got, want)
	}
}

func TestMaterializeToMissingDir(t *testing.T) {
	seq, _ := NewConstantVector("data", "logic", 2, "i", []string{"1"})
	if _, err := seq.MaterializeTo(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestPullSourceAdaptsIterator(t *testing.T) {
	src := NewPullSource(slices.Values([]string{"a", "b"}))
	defer src.Stop()

	seq, _ := NewNamedSequence("s", "logic", 1, "i", src, Unbounded)
	if err := seq.Generate(2); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, seq.Sequence); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
	if _, err := src.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted after the iterator ends, got %v", err)
	}
}
