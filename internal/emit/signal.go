// Package emit holds the signal and sequence emitters. Each emitter knows how
// to contribute its declaration and behaviour into a block.Registry; emitters
// never talk to each other except through the blocks they both touch.
package emit

import (
	"strconv"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

// DefaultDatatype is the storage type used when none is given.
const DefaultDatatype = "logic"

// Emitter contributes generated lines into a registry.
type Emitter interface {
	Name() string
	Contribute(r *block.Registry) error
}

// Signal is a plain declared signal.
type Signal struct {
	name     string
	datatype string
	width    int
}

// OutputSignal is a signal driven by the device under test.
type OutputSignal = Signal

// NewSignal validates width and returns a signal. An empty datatype means "logic".
func NewSignal(name, datatype string, width int) (*Signal, error) {
	if err := checkWidth(name, width); err != nil {
		return nil, err
	}
	if datatype == "" {
		datatype = DefaultDatatype
	}
	return &Signal{name: name, datatype: datatype, width: width}, nil
}

// NewOutputSignal is NewSignal for outputs.
func NewOutputSignal(name, datatype string, width int) (*OutputSignal, error) {
	return NewSignal(name, datatype, width)
}

func (s *Signal) Name() string     { return s.name }
func (s *Signal) Datatype() string { return s.datatype }
func (s *Signal) Width() int       { return s.width }

// Declaration returns the EXTERN line for the signal.
func (s *Signal) Declaration() string {
	return "var " + typeRange(s.datatype, s.width) + " " + s.name + ";"
}

// Contribute appends the declaration to the first EXTERN block.
func (s *Signal) Contribute(r *block.Registry) error {
	ext, err := r.Require(block.Extern, block.Any)
	if err != nil {
		return err
	}
	ext.Append(s.Declaration())
	return nil
}

// typeRange renders "logic" for one bit and "logic[W-1:0]" otherwise.
func typeRange(datatype string, width int) string {
	if width == 1 {
		return datatype
	}
	return datatype + "[" + strconv.Itoa(width-1) + ":0]"
}

// ConstantSignal is a signal assigned once in the INITIAL block.
type ConstantSignal struct {
	Signal
	Value string
}

// NewConstantSignal returns a constant signal holding the bit pattern value.
func NewConstantSignal(name, datatype string, width int, value string) (*ConstantSignal, error) {
	s, err := NewSignal(name, datatype, width)
	if err != nil {
		return nil, err
	}
	return &ConstantSignal{Signal: *s, Value: value}, nil
}

// Assignment returns the INITIAL line, e.g. "sig = 4'b1010;".
func (c *ConstantSignal) Assignment() string {
	return c.name + " = " + strconv.Itoa(c.width) + "'b" + c.Value + ";"
}

// Contribute declares the signal, then assigns it in the first INITIAL block.
func (c *ConstantSignal) Contribute(r *block.Registry) error {
	if err := c.Signal.Contribute(r); err != nil {
		return err
	}
	initial, err := r.Require(block.Initial, block.Any)
	if err != nil {
		return err
	}
	initial.Append(c.Assignment())
	return nil
}

// IteratorSignal counts clock edges; sequences index their tables with it.
// StartValue, when set, is assigned in the first INITIAL block; without it
// the iterator starts as X in simulation.
type IteratorSignal struct {
	Signal
	StartValue string
}

// NewIteratorSignal returns a logic iterator of the given width.
func NewIteratorSignal(name string, width int) (*IteratorSignal, error) {
	s, err := NewSignal(name, DefaultDatatype, width)
	if err != nil {
		return nil, err
	}
	return &IteratorSignal{Signal: *s}, nil
}

// Contribute declares the iterator, assigns its start value if any and
// increments it in the clocked block. A ClockSignal must have contributed first.
func (it *IteratorSignal) Contribute(r *block.Registry) error {
	if err := it.Signal.Contribute(r); err != nil {
		return err
	}
	if it.StartValue != "" {
		initial, err := r.Require(block.Initial, block.Any)
		if err != nil {
			return err
		}
		initial.Append(it.name + " = " + strconv.Itoa(it.width) + "'b" + it.StartValue + ";")
	}
	clocked, err := r.Clocked()
	if err != nil {
		return err
	}
	clocked.Append(it.name + " += 1;")
	return nil
}
