package facts

import (
	"sort"

	"github.com/robert-at-pretension-io/svbench/internal/block"
	"github.com/robert-at-pretension-io/svbench/internal/config"
)

// Tables is the relational view of one or more benches.
// Each slice is a relation (table) with flat rows; Bench names the
// description file or module a row came from.
type Tables struct {
	Clocks    []ClockRow    `json:"clocks"`
	Iterators []IteratorRow `json:"iterators"`
	Signals   []SignalRow   `json:"signals"`
	Sequences []SequenceRow `json:"sequences"`
	Blocks    []BlockRow    `json:"blocks"`
}

type ClockRow struct {
	Bench  string `json:"bench"`
	Name   string `json:"name"`
	Period int    `json:"period"`
	Start  string `json:"start"`
}

type IteratorRow struct {
	Bench string `json:"bench"`
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// SignalRow covers plain, output and constant signals; Kind tells them apart.
type SignalRow struct {
	Bench    string `json:"bench"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Datatype string `json:"datatype"`
	Width    int    `json:"width"`
	Value    string `json:"value"`
}

// SequenceRow describes one sequence. Entries is the table size the bench
// will declare: the generated length when a generator and length are set,
// otherwise the number of literal values.
type SequenceRow struct {
	Bench     string `json:"bench"`
	Name      string `json:"name"`
	Datatype  string `json:"datatype"`
	Width     int    `json:"width"`
	Iterator  string `json:"iterator"`
	Entries   int    `json:"entries"`
	Generator string `json:"generator"`
	MemFile   string `json:"mem_file"`
}

type BlockRow struct {
	Bench    string `json:"bench"`
	Index    int    `json:"index"`
	Category string `json:"category"`
	Clocked  bool   `json:"clocked"`
	Lines    int    `json:"lines"`
}

const (
	KindSignal   = "signal"
	KindOutput   = "output"
	KindConstant = "constant"
)

// FromConfig builds the tables a bench description declares, before any
// emitter has run.
func FromConfig(bench string, cfg *config.Config) Tables {
	t := emptyTables()
	for _, c := range cfg.Clocks {
		t.Clocks = append(t.Clocks, ClockRow{Bench: bench, Name: c.Name, Period: c.Period, Start: c.Start})
	}
	for _, it := range cfg.Iterators {
		t.Iterators = append(t.Iterators, IteratorRow{Bench: bench, Name: it.Name, Width: it.Width})
	}
	for _, s := range cfg.Signals {
		t.Signals = append(t.Signals, signalRow(bench, KindSignal, s.Name, s.Datatype, s.Width, ""))
	}
	for _, s := range cfg.Outputs {
		t.Signals = append(t.Signals, signalRow(bench, KindOutput, s.Name, s.Datatype, s.Width, ""))
	}
	for _, c := range cfg.Constants {
		t.Signals = append(t.Signals, signalRow(bench, KindConstant, c.Name, c.Datatype, c.Width, c.Value))
	}
	for _, s := range cfg.Sequences {
		row := SequenceRow{
			Bench:    bench,
			Name:     s.Name,
			Datatype: datatypeOr(s.Datatype),
			Width:    s.Width,
			Iterator: s.Iterator,
			Entries:  len(s.Values),
			MemFile:  s.Name + "_tv.mem",
		}
		if s.Generator != nil {
			row.Generator = s.Generator.Kind
			if s.Length > 0 {
				row.Entries = s.Length
			}
		}
		t.Sequences = append(t.Sequences, row)
	}
	for i, b := range cfg.Blocks {
		category := b.Category
		if c, err := block.ParseCategory(category); err == nil {
			category = c.String()
		}
		t.Blocks = append(t.Blocks, BlockRow{Bench: bench, Index: i, Category: category, Lines: len(b.Lines)})
	}
	return t
}

// BlockRows describes the blocks of a registry after generation.
func BlockRows(bench string, r *block.Registry) []BlockRow {
	rows := []BlockRow{}
	for i, b := range r.Blocks() {
		rows = append(rows, BlockRow{
			Bench:    bench,
			Index:    i,
			Category: b.Category.String(),
			Clocked:  b.Tagged(block.TagClock),
			Lines:    len(b.Lines),
		})
	}
	return rows
}

// Merge concatenates tables, sorting rows by bench and name so the result
// does not depend on input order.
func Merge(all ...Tables) Tables {
	out := emptyTables()
	for _, t := range all {
		out.Clocks = append(out.Clocks, t.Clocks...)
		out.Iterators = append(out.Iterators, t.Iterators...)
		out.Signals = append(out.Signals, t.Signals...)
		out.Sequences = append(out.Sequences, t.Sequences...)
		out.Blocks = append(out.Blocks, t.Blocks...)
	}
	sort.SliceStable(out.Clocks, func(i, j int) bool {
		return less(out.Clocks[i].Bench, out.Clocks[i].Name, out.Clocks[j].Bench, out.Clocks[j].Name)
	})
	sort.SliceStable(out.Iterators, func(i, j int) bool {
		return less(out.Iterators[i].Bench, out.Iterators[i].Name, out.Iterators[j].Bench, out.Iterators[j].Name)
	})
	sort.SliceStable(out.Signals, func(i, j int) bool {
		return less(out.Signals[i].Bench, out.Signals[i].Name, out.Signals[j].Bench, out.Signals[j].Name)
	})
	sort.SliceStable(out.Sequences, func(i, j int) bool {
		return less(out.Sequences[i].Bench, out.Sequences[i].Name, out.Sequences[j].Bench, out.Sequences[j].Name)
	})
	sort.SliceStable(out.Blocks, func(i, j int) bool {
		if out.Blocks[i].Bench != out.Blocks[j].Bench {
			return out.Blocks[i].Bench < out.Blocks[j].Bench
		}
		return out.Blocks[i].Index < out.Blocks[j].Index
	})
	return out
}

func less(benchA, nameA, benchB, nameB string) bool {
	if benchA != benchB {
		return benchA < benchB
	}
	return nameA < nameB
}

func signalRow(bench, kind, name, datatype string, width int, value string) SignalRow {
	return SignalRow{Bench: bench, Name: name, Kind: kind, Datatype: datatypeOr(datatype), Width: width, Value: value}
}

func datatypeOr(dt string) string {
	if dt == "" {
		return "logic"
	}
	return dt
}

func emptyTables() Tables {
	return Tables{
		Clocks:    []ClockRow{},
		Iterators: []IteratorRow{},
		Signals:   []SignalRow{},
		Sequences: []SequenceRow{},
		Blocks:    []BlockRow{},
	}
}
