package emit

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned by a Source that has no more values.
var ErrExhausted = errors.New("source exhausted")

// InvalidWidthError is returned at construction when a bit width is below 1.
type InvalidWidthError struct {
	Name  string
	Width int
}

func (e *InvalidWidthError) Error() string {
	return fmt.Sprintf("%s: bit width must be 1 or more, got %d", e.Name, e.Width)
}

// InvalidPeriodError is returned at construction when a clock period is below 1.
type InvalidPeriodError struct {
	Name   string
	Period int
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("%s: clock period must be 1 or more, got %d", e.Name, e.Period)
}

// DuplicateClockError is returned when a second clock-driven block would be installed.
// The clocked-block check runs before any other block lookup, so it takes
// precedence over a MissingBlockError for the same registry.
type DuplicateClockError struct {
	Name string
	// Existing names the clock that already owns the clocked block, when known.
	Existing string
}

func (e *DuplicateClockError) Error() string {
	if e.Existing != "" {
		return fmt.Sprintf("clock %s: clocked always block already driven by %s; only one is allowed per testbench", e.Name, e.Existing)
	}
	return fmt.Sprintf("clock %s: there is already a clocked always block; only one is allowed per testbench", e.Name)
}

// GeneratorExhaustedError reports that a source ran dry during Generate.
type GeneratorExhaustedError struct {
	Sequence  string
	Requested int
	Pulled    int
	Err       error
}

func (e *GeneratorExhaustedError) Error() string {
	return fmt.Sprintf("sequence %s: source produced %d of %d values: %v", e.Sequence, e.Pulled, e.Requested, e.Err)
}

func (e *GeneratorExhaustedError) Unwrap() error { return e.Err }

func checkWidth(name string, width int) error {
	if width < 1 {
		return &InvalidWidthError{Name: name, Width: width}
	}
	return nil
}
