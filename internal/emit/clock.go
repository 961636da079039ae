package emit

import (
	"strconv"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

// DefaultPeriod is the half period, in time units, bench descriptions use
// when a clock leaves it out.
const DefaultPeriod = 10

// ClockSignal is a free-running 1-bit clock. Contributing it also installs the
// registry's single clock-tagged ALWAYS block.
type ClockSignal struct {
	Signal
	Period     int
	StartValue string
}

// NewClockSignal returns a clock toggling every period time units. The
// period is emitted as given and must be at least 1; an empty start value
// means "0".
func NewClockSignal(name string, period int, startValue string) (*ClockSignal, error) {
	s, err := NewSignal(name, DefaultDatatype, 1)
	if err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, &InvalidPeriodError{Name: name, Period: period}
	}
	if startValue == "" {
		startValue = "0"
	}
	return &ClockSignal{Signal: *s, Period: period, StartValue: startValue}, nil
}

// Contribute declares the clock, initialises it, installs the toggling
// process in the first untagged ALWAYS block and appends a new clock-tagged
// ALWAYS block opened on the rising edge.
//
// The single-clock check runs before anything is appended, so a rejected
// clock leaves the registry untouched.
func (c *ClockSignal) Contribute(r *block.Registry) error {
	if existing, ok := r.FindFirst(block.Always, block.Tagged(block.TagClock)); ok {
		dup := &DuplicateClockError{Name: c.name}
		if owner, ok := existing.Metadata[block.TagClock].(*ClockSignal); ok {
			dup.Existing = owner.name
		}
		return dup
	}

	initial, err := r.Require(block.Initial, block.Any)
	if err != nil {
		return err
	}
	free, err := r.Require(block.Always, block.Untagged(block.TagClock))
	if err != nil {
		return err
	}
	ext, err := r.Require(block.Extern, block.Any)
	if err != nil {
		return err
	}

	ext.Append(c.Declaration())
	initial.Append(c.name + " = 1'b" + c.StartValue + ";")
	free.Append("#" + strconv.Itoa(c.Period) + "; " + c.name + " = ~" + c.name + ";")
	r.Add(block.New(block.Always,
		map[string]any{block.TagClock: c},
		"always @(posedge "+c.name+") begin",
	))
	return nil
}
