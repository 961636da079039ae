package emit

import (
	"iter"
	"math/rand/v2"
	"strconv"
)

// Source is a resumable producer of bit-pattern strings.
// Next returns ErrExhausted once no more values are available.
type Source interface {
	Next() (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (string, error)

func (f SourceFunc) Next() (string, error) { return f() }

// ClockSource alternates "0" and "1" forever. It cannot be rewound; build a
// new one to restart from "0".
type ClockSource struct {
	high bool
}

func NewClockSource() *ClockSource { return &ClockSource{} }

func (c *ClockSource) Next() (string, error) {
	v := "0"
	if c.high {
		v = "1"
	}
	c.high = !c.high
	return v, nil
}

// SliceSource yields a fixed list of values once, then ErrExhausted.
// Reset rewinds it.
type SliceSource struct {
	values []string
	pos    int
}

func NewSliceSource(values ...string) *SliceSource {
	return &SliceSource{values: append([]string(nil), values...)}
}

func (s *SliceSource) Next() (string, error) {
	if s.pos >= len(s.values) {
		return "", ErrExhausted
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

func (s *SliceSource) Reset() { s.pos = 0 }

// CounterSource counts up in binary from start, wrapping at 2^width.
// It never runs dry; Reset rewinds it to start.
type CounterSource struct {
	width int
	start uint64
	cur   uint64
}

func NewCounterSource(width int, start uint64) (*CounterSource, error) {
	if err := checkWidth("counter", width); err != nil {
		return nil, err
	}
	start &= mask(width)
	return &CounterSource{width: width, start: start, cur: start}, nil
}

func (c *CounterSource) Next() (string, error) {
	v := c.cur
	c.cur = (c.cur + 1) & mask(c.width)
	return strconv.FormatUint(v, 2), nil
}

func (c *CounterSource) Reset() { c.cur = c.start }

// RandomSource yields uniformly distributed width-bit values from a PCG
// generator. The same seed always reproduces the same stream.
type RandomSource struct {
	width int
	rng   *rand.Rand
}

func NewRandomSource(width int, seed uint64) (*RandomSource, error) {
	if err := checkWidth("random", width); err != nil {
		return nil, err
	}
	return &RandomSource{width: width, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}, nil
}

func (r *RandomSource) Next() (string, error) {
	return strconv.FormatUint(r.rng.Uint64()&mask(r.width), 2), nil
}

// PullSource adapts an iterator. Stop must be called once the source is no
// longer needed; a stopped source is exhausted.
type PullSource struct {
	next func() (string, bool)
	stop func()
}

func NewPullSource(seq iter.Seq[string]) *PullSource {
	next, stop := iter.Pull(seq)
	return &PullSource{next: next, stop: stop}
}

func (p *PullSource) Next() (string, error) {
	v, ok := p.next()
	if !ok {
		return "", ErrExhausted
	}
	return v, nil
}

func (p *PullSource) Stop() { p.stop() }

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}
