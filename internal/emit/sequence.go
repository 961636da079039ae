package emit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

// Unbounded marks a sequence whose length is unknown; it must be filled manually.
const Unbounded = -1

// MemSuffix is appended to a sequence name to form its test-vector file.
const MemSuffix = "_tv.mem"

// NamedSequence is a signal replayed from a lookup table, one entry per
// clock edge, indexed by an iterator. The table is loaded at simulation time
// from "<name>_tv.mem".
type NamedSequence struct {
	Signal
	Sequence       []string
	Source         Source
	IteratorName   string
	DeclaredLength int

	logger *zap.Logger
}

// ConstantVector is a sequence of fixed test vectors.
type ConstantVector = NamedSequence

// NewNamedSequence returns a sequence indexed by iteratorName. The iterator is
// referenced by name only and is never checked for existence here.
func NewNamedSequence(name, datatype string, width int, iteratorName string, src Source, declaredLength int) (*NamedSequence, error) {
	s, err := NewSignal(name, datatype, width)
	if err != nil {
		return nil, err
	}
	return &NamedSequence{
		Signal:         *s,
		Source:         src,
		IteratorName:   iteratorName,
		DeclaredLength: declaredLength,
		logger:         zap.NewNop(),
	}, nil
}

// NewConstantVector is NewNamedSequence seeded with fixed values.
func NewConstantVector(name, datatype string, width int, iteratorName string, values []string) (*ConstantVector, error) {
	seq, err := NewNamedSequence(name, datatype, width, iteratorName, nil, len(values))
	if err != nil {
		return nil, err
	}
	seq.SetElements(values)
	return seq, nil
}

// SetLogger routes the sequence's warnings to l. A nil logger silences them.
func (s *NamedSequence) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

func (s *NamedSequence) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// TableName is the name of the declared lookup table.
func (s *NamedSequence) TableName() string { return s.name + "_tv" }

// MemFile is the test-vector file name read by $readmemb.
func (s *NamedSequence) MemFile() string { return s.name + MemSuffix }

// Contribute declares the live signal and its table, loads the table in the
// first INITIAL block and assigns the signal on each clocked edge.
func (s *NamedSequence) Contribute(r *block.Registry) error {
	ext, err := r.Require(block.Extern, block.Any)
	if err != nil {
		return err
	}
	ext.Append(s.Declaration())
	ext.Append("var " + typeRange(s.datatype, s.width) + " " + s.TableName() + "[" + strconv.Itoa(len(s.Sequence)-1) + ":0];")

	initial, err := r.Require(block.Initial, block.Any)
	if err != nil {
		return err
	}
	initial.Append("$readmemb(\"" + s.MemFile() + "\", " + s.TableName() + ");")

	clocked, err := r.Clocked()
	if err != nil {
		return err
	}
	clocked.Append(s.name + " = " + s.TableName() + "[" + s.IteratorName + "];")
	return nil
}

// Generate fills the sequence from its source. A positive lengthOverride
// pulls exactly that many values; otherwise the declared length is used.
// With neither, nothing is pulled and a warning is logged. The sequence is
// replaced only when every requested value was pulled.
func (s *NamedSequence) Generate(lengthOverride int) error {
	n := lengthOverride
	if n <= 0 {
		n = s.DeclaredLength
	}
	if n <= 0 {
		s.log().Warn("sequence not generated because length would be infinite; expected to be generated manually",
			zap.String("sequence", s.name))
		return nil
	}

	pulled := make([]string, 0, n)
	for len(pulled) < n {
		if s.Source == nil {
			return &GeneratorExhaustedError{Sequence: s.name, Requested: n, Pulled: len(pulled), Err: ErrExhausted}
		}
		v, err := s.Source.Next()
		if err != nil {
			if !errors.Is(err, ErrExhausted) {
				return fmt.Errorf("sequence %s: pulling value %d: %w", s.name, len(pulled), err)
			}
			return &GeneratorExhaustedError{Sequence: s.name, Requested: n, Pulled: len(pulled), Err: err}
		}
		pulled = append(pulled, v)
	}
	s.Sequence = pulled
	s.log().Debug("sequence generated", zap.String("sequence", s.name), zap.Int("length", n))
	return nil
}

// AddElements appends values to the sequence.
func (s *NamedSequence) AddElements(values []string) {
	s.Sequence = append(s.Sequence, values...)
}

// SetElements replaces the sequence with a copy of values.
func (s *NamedSequence) SetElements(values []string) {
	s.Sequence = append([]string(nil), values...)
}

// WriteMem writes one entry per line, left-padded with '0' to the bit width.
// Entries already wider than the signal are written as they are.
func (s *NamedSequence) WriteMem(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range s.Sequence {
		if pad := s.width - len(v); pad > 0 {
			v = strings.Repeat("0", pad) + v
		}
		if _, err := bw.WriteString(v + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MaterializeTo writes the test-vector file into dir and returns its path.
func (s *NamedSequence) MaterializeTo(dir string) (string, error) {
	path := filepath.Join(dir, s.MemFile())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := s.WriteMem(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// MaterializeToFile writes "<name>_tv.mem" in the working directory. It must
// run before the generated testbench is simulated.
func (s *NamedSequence) MaterializeToFile() error {
	_, err := s.MaterializeTo(".")
	return err
}
