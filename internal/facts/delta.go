package facts

import "strconv"

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// Empty reports whether the snapshots were identical.
func (d Delta) Empty() bool {
	return d.Added.rowCount() == 0 && d.Removed.rowCount() == 0
}

func (t Tables) rowCount() int {
	return len(t.Clocks) + len(t.Iterators) + len(t.Signals) + len(t.Sequences) + len(t.Blocks)
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Clocks = diffRows(from.Clocks, to.Clocks, func(r ClockRow) string {
		return r.Bench + "|" + r.Name + "|" + intKey(r.Period) + "|" + r.Start
	})
	out.Iterators = diffRows(from.Iterators, to.Iterators, func(r IteratorRow) string {
		return r.Bench + "|" + r.Name + "|" + intKey(r.Width)
	})
	out.Signals = diffRows(from.Signals, to.Signals, func(r SignalRow) string {
		return r.Bench + "|" + r.Name + "|" + r.Kind + "|" + r.Datatype + "|" + intKey(r.Width) + "|" + r.Value
	})
	out.Sequences = diffRows(from.Sequences, to.Sequences, func(r SequenceRow) string {
		return r.Bench + "|" + r.Name + "|" + r.Datatype + "|" + intKey(r.Width) + "|" + r.Iterator + "|" + intKey(r.Entries) + "|" + r.Generator
	})
	out.Blocks = diffRows(from.Blocks, to.Blocks, func(r BlockRow) string {
		return r.Bench + "|" + intKey(r.Index) + "|" + r.Category + "|" + boolKey(r.Clocked) + "|" + intKey(r.Lines)
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func intKey(v int) string {
	return strconv.Itoa(v)
}
