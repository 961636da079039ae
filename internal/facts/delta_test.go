package facts

import "testing"

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := Tables{
		Clocks: []ClockRow{
			{Bench: "tb", Name: "clk", Period: 10, Start: "0"},
		},
		Sequences: []SequenceRow{
			{Bench: "tb", Name: "a", Width: 4, Iterator: "i", Entries: 8},
		},
	}
	next := Tables{
		Clocks: []ClockRow{
			{Bench: "tb", Name: "clk", Period: 5, Start: "0"},
		},
		Sequences: []SequenceRow{
			{Bench: "tb", Name: "a", Width: 4, Iterator: "i", Entries: 8},
		},
	}

	delta := ComputeDelta(prev, next)

	if len(delta.Added.Clocks) != 1 || delta.Added.Clocks[0].Period != 5 {
		t.Fatalf("expected clock with period 5 added, got %+v", delta.Added.Clocks)
	}
	if len(delta.Removed.Clocks) != 1 || delta.Removed.Clocks[0].Period != 10 {
		t.Fatalf("expected clock with period 10 removed, got %+v", delta.Removed.Clocks)
	}
	if len(delta.Added.Sequences) != 0 || len(delta.Removed.Sequences) != 0 {
		t.Fatalf("expected unchanged sequences, got %+v", delta)
	}
	if delta.Empty() {
		t.Fatalf("expected non-empty delta")
	}
}

func TestComputeDeltaIdentical(t *testing.T) {
	snap := Tables{Blocks: []BlockRow{{Bench: "tb", Index: 0, Category: "EXTERN", Lines: 3}}}
	if !ComputeDelta(snap, snap).Empty() {
		t.Fatalf("expected empty delta for identical snapshots")
	}
}
