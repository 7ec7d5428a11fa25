package performance

import (
	"testing"
	"time"
)

func TestRecordCommandAggregates(t *testing.T) {
	tr := NewTracker()
	tr.RecordCommand("marks", 100*time.Millisecond, true)
	tr.RecordCommand("marks", 300*time.Millisecond, false)
	tr.RecordCommand("races", 50*time.Millisecond, true)

	stats := tr.GetStats()
	marks, ok := stats.Commands["marks"]
	if !ok {
		t.Fatalf("marks missing: %+v", stats)
	}
	if marks.Count != 2 || marks.Failures != 1 || marks.SuccessRate != 50 {
		t.Errorf("unexpected marks stats %+v", marks)
	}
	if marks.AvgTime != "200ms" || marks.MaxTime != "300ms" {
		t.Errorf("unexpected marks timings %+v", marks)
	}
	if len(stats.SlowestCommands) != 3 || stats.SlowestCommands[0].Duration != "300ms" {
		t.Errorf("slowest not ordered: %+v", stats.SlowestCommands)
	}
}

func TestSlowestIsBounded(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= 20; i++ {
		tr.RecordCommand("help", time.Duration(i)*time.Millisecond, true)
	}
	stats := tr.GetStats()
	if len(stats.SlowestCommands) != maxSlowest {
		t.Fatalf("expected %d slowest, got %d", maxSlowest, len(stats.SlowestCommands))
	}
	if stats.SlowestCommands[0].Duration != "20ms" || stats.SlowestCommands[maxSlowest-1].Duration != "16ms" {
		t.Errorf("unexpected slowest %+v", stats.SlowestCommands)
	}

	tr.Reset()
	if got := tr.GetStats(); len(got.Commands) != 0 || len(got.SlowestCommands) != 0 {
		t.Errorf("Reset left data: %+v", got)
	}
}
