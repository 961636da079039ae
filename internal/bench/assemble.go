package bench

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/svbench/internal/block"
	"github.com/robert-at-pretension-io/svbench/internal/config"
	"github.com/robert-at-pretension-io/svbench/internal/emit"
)

// Generator kinds accepted in a sequence's generator.kind.
const (
	GeneratorClock   = "clock"
	GeneratorCounter = "counter"
	GeneratorRandom  = "random"
	GeneratorList    = "list"
)

// Assembly is a registry with every emitter of a bench contributed.
type Assembly struct {
	Registry  *block.Registry
	Sequences []*emit.NamedSequence
}

// Assemble builds the seeded registry, generates every sequence and lets the
// emitters contribute in declaration order: clocks, iterators, outputs,
// signals, constants, sequences. Sequences are generated first because
// their table declaration is sized from the generated length.
func Assemble(cfg *config.Config, logger *zap.Logger) (*Assembly, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	sequences, err := buildSequences(cfg, logger)
	if err != nil {
		return nil, err
	}

	emitters, err := buildEmitters(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range sequences {
		emitters = append(emitters, s)
	}

	for _, e := range emitters {
		if err := e.Contribute(r); err != nil {
			return nil, fmt.Errorf("contributing %s: %w", e.Name(), err)
		}
		logger.Debug("contributed", zap.String("emitter", e.Name()))
	}

	if cfg.FinishAfter > 0 {
		initial, err := r.Require(block.Initial, block.Any)
		if err != nil {
			return nil, fmt.Errorf("scheduling $finish: %w", err)
		}
		initial.Append(fmt.Sprintf("#%d $finish;", cfg.FinishAfter))
	}

	return &Assembly{Registry: r, Sequences: sequences}, nil
}

func buildEmitters(cfg *config.Config) ([]emit.Emitter, error) {
	var out []emit.Emitter
	for _, c := range cfg.Clocks {
		clk, err := emit.NewClockSignal(c.Name, c.Period, c.Start)
		if err != nil {
			return nil, err
		}
		out = append(out, clk)
	}
	for _, it := range cfg.Iterators {
		s, err := emit.NewIteratorSignal(it.Name, it.Width)
		if err != nil {
			return nil, err
		}
		s.StartValue = it.Start
		out = append(out, s)
	}
	for _, o := range cfg.Outputs {
		s, err := emit.NewOutputSignal(o.Name, o.Datatype, o.Width)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, sc := range cfg.Signals {
		s, err := emit.NewSignal(sc.Name, sc.Datatype, sc.Width)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, c := range cfg.Constants {
		s, err := emit.NewConstantSignal(c.Name, c.Datatype, c.Width, c.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func buildSequences(cfg *config.Config, logger *zap.Logger) ([]*emit.NamedSequence, error) {
	var out []*emit.NamedSequence
	for _, sc := range cfg.Sequences {
		if sc.Generator == nil {
			seq, err := emit.NewConstantVector(sc.Name, sc.Datatype, sc.Width, sc.Iterator, sc.Values)
			if err != nil {
				return nil, err
			}
			seq.SetLogger(logger)
			out = append(out, seq)
			continue
		}

		src, err := NewSource(sc.Generator, sc.Width)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", sc.Name, err)
		}
		seq, err := emit.NewNamedSequence(sc.Name, sc.Datatype, sc.Width, sc.Iterator, src, sc.Length)
		if err != nil {
			return nil, err
		}
		seq.SetLogger(logger)
		seq.SetElements(sc.Values)
		if err := seq.Generate(0); err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, nil
}

// NewSource builds the value source a generator config describes.
func NewSource(g *config.GeneratorConfig, width int) (emit.Source, error) {
	switch strings.ToLower(g.Kind) {
	case GeneratorClock:
		return emit.NewClockSource(), nil
	case GeneratorCounter:
		src, err := emit.NewCounterSource(width, g.Start)
		if err != nil {
			return nil, err
		}
		return src, nil
	case GeneratorRandom:
		src, err := emit.NewRandomSource(width, g.Seed)
		if err != nil {
			return nil, err
		}
		return src, nil
	case GeneratorList:
		return emit.NewSliceSource(g.Values...), nil
	}
	return nil, fmt.Errorf("unknown generator kind %q", g.Kind)
}
