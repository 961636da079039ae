package facts

import "testing"

func TestFilterTablesByBench(t *testing.T) {
	tables := Tables{
		Clocks: []ClockRow{
			{Bench: "a", Name: "clk"},
			{Bench: "b", Name: "clk"},
		},
		Signals: []SignalRow{
			{Bench: "a", Name: "rst"},
			{Bench: "b", Name: "en"},
		},
		Blocks: []BlockRow{
			{Bench: "a", Category: "EXTERN"},
			{Bench: "b", Category: "EXTERN"},
		},
	}

	filtered := FilterTablesByBench(tables, map[string]bool{"a": true})

	if len(filtered.Clocks) != 1 || filtered.Clocks[0].Bench != "a" {
		t.Fatalf("expected only bench a clock rows, got %#v", filtered.Clocks)
	}
	if len(filtered.Signals) != 1 || filtered.Signals[0].Name != "rst" {
		t.Fatalf("expected only bench a signal rows, got %#v", filtered.Signals)
	}
	if len(filtered.Blocks) != 1 || filtered.Blocks[0].Bench != "a" {
		t.Fatalf("expected only bench a block rows, got %#v", filtered.Blocks)
	}
}

func TestFilterTablesByBenchEmptySet(t *testing.T) {
	tables := Tables{Clocks: []ClockRow{{Bench: "a", Name: "clk"}}}
	filtered := FilterTablesByBench(tables, nil)
	if len(filtered.Clocks) != 0 || filtered.Clocks == nil {
		t.Fatalf("expected empty non-nil relation, got %#v", filtered.Clocks)
	}
}
