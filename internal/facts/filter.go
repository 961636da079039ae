package facts

// FilterTablesByBench returns a new Tables object containing only rows whose
// bench is present in the provided set.
func FilterTablesByBench(tables Tables, benches map[string]bool) Tables {
	out := emptyTables()
	if len(benches) == 0 {
		return out
	}

	for _, row := range tables.Clocks {
		if benches[row.Bench] {
			out.Clocks = append(out.Clocks, row)
		}
	}
	for _, row := range tables.Iterators {
		if benches[row.Bench] {
			out.Iterators = append(out.Iterators, row)
		}
	}
	for _, row := range tables.Signals {
		if benches[row.Bench] {
			out.Signals = append(out.Signals, row)
		}
	}
	for _, row := range tables.Sequences {
		if benches[row.Bench] {
			out.Sequences = append(out.Sequences, row)
		}
	}
	for _, row := range tables.Blocks {
		if benches[row.Bench] {
			out.Blocks = append(out.Blocks, row)
		}
	}

	return out
}
