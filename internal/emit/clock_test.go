package emit

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

func TestClockContribute(t *testing.T) {
	r := standardRegistry()
	clk, err := NewClockSignal("clk", 10, "1")
	if err != nil {
		t.Fatalf("NewClockSignal: %v", err)
	}
	if err := clk.Contribute(r); err != nil {
		t.Fatalf("Contribute: %v", err)
	}

	if diff := cmp.Diff([]string{"var logic clk;"}, linesOf(t, r, block.Extern, nil)); diff != "" {
		t.Fatalf("extern mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clk = 1'b1;"}, linesOf(t, r, block.Initial, nil)); diff != "" {
		t.Fatalf("initial mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"#10; clk = ~clk;"}, linesOf(t, r, block.Always, block.Untagged(block.TagClock))); diff != "" {
		t.Fatalf("free-running block mismatch (-want +got):\n%s", diff)
	}

	if r.Len() != 4 {
		t.Fatalf("expected a new clocked block to be appended, have %d blocks", r.Len())
	}
	clocked := r.Blocks()[3]
	if clocked.Category != block.Always || clocked.Metadata[block.TagClock] != clk {
		t.Fatalf("last block is not the clock-tagged ALWAYS block: %+v", clocked)
	}
	if diff := cmp.Diff([]string{"always @(posedge clk) begin"}, clocked.Lines); diff != "" {
		t.Fatalf("clocked block mismatch (-want +got):\n%s", diff)
	}
}

func TestClockDefaults(t *testing.T) {
	clk, err := NewClockSignal("clk", 3, "")
	if err != nil {
		t.Fatalf("NewClockSignal: %v", err)
	}
	if clk.Period != 3 || clk.StartValue != "0" || clk.Width() != 1 || clk.Datatype() != "logic" {
		t.Fatalf("unexpected defaults: %+v", clk)
	}
}

func TestClockRejectsPeriodBelowOne(t *testing.T) {
	for _, period := range []int{0, -4} {
		clk, err := NewClockSignal("clk", period, "0")
		var invalid *InvalidPeriodError
		if !errors.As(err, &invalid) {
			t.Fatalf("period %d: expected InvalidPeriodError, got %v (%+v)", period, err, clk)
		}
		if invalid.Period != period || invalid.Name != "clk" {
			t.Fatalf("unexpected error %+v", invalid)
		}
	}
}

func TestDuplicateClockTakesPrecedenceOverMissingBlock(t *testing.T) {
	r := block.NewRegistry(block.Initial, block.Always)
	first, _ := NewClockSignal("clk", 10, "0")
	r.Add(block.New(block.Always, map[string]any{block.TagClock: first}, "always @(posedge clk) begin"))

	second, _ := NewClockSignal("clk2", 4, "0")
	var dup *DuplicateClockError
	if err := second.Contribute(r); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateClockError without an EXTERN block, got %v", err)
	}
}

func TestSecondClockFails(t *testing.T) {
	r := standardRegistry()
	first, _ := NewClockSignal("clk", 10, "0")
	second, _ := NewClockSignal("clk2", 4, "0")

	if err := first.Contribute(r); err != nil {
		t.Fatalf("first clock: %v", err)
	}
	before := len(linesOf(t, r, block.Extern, nil))

	err := second.Contribute(r)
	var dup *DuplicateClockError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateClockError, got %v", err)
	}
	if dup.Name != "clk2" || dup.Existing != "clk" {
		t.Fatalf("unexpected error detail: %+v", dup)
	}
	if got := len(linesOf(t, r, block.Extern, nil)); got != before {
		t.Fatalf("rejected clock touched EXTERN: %d lines, want %d", got, before)
	}
	if r.Len() != 4 {
		t.Fatalf("rejected clock added a block: %d blocks", r.Len())
	}
}

func TestClockNeedsUntaggedAlways(t *testing.T) {
	r := block.NewRegistry(block.Extern, block.Initial)
	clk, _ := NewClockSignal("clk", 10, "0")
	err := clk.Contribute(r)
	var missing *block.MissingBlockError
	if !errors.As(err, &missing) || missing.Category != block.Always {
		t.Fatalf("expected ALWAYS MissingBlockError, got %v", err)
	}
}

func TestClockNeedsInitial(t *testing.T) {
	r := block.NewRegistry(block.Extern, block.Always)
	clk, _ := NewClockSignal("clk", 10, "0")
	err := clk.Contribute(r)
	var missing *block.MissingBlockError
	if !errors.As(err, &missing) || missing.Category != block.Initial {
		t.Fatalf("expected INITIAL MissingBlockError, got %v", err)
	}
}
