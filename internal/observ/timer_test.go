package observ

import (
	"strings"
	"testing"
)

func TestStopwatchReport(t *testing.T) {
	sw := NewStopwatch()
	stop := sw.Start("parse")
	stop("")
	stopLower := sw.Start("lower")
	first := stopLower("3 ops")
	if again := stopLower("ignored"); again != first {
		t.Fatalf("second stop changed the lap: %v != %v", again, first)
	}
	sw.Skip("run")

	r := sw.Report()
	if len(r.Laps) != 3 {
		t.Fatalf("laps = %d", len(r.Laps))
	}
	lower, ok := r.Lap("lower")
	if !ok || lower.Note != "3 ops" {
		t.Fatalf("lower = %+v, %v", lower, ok)
	}
	if run, _ := r.Lap("run"); !run.Cached || run.Dur != 0 {
		t.Fatalf("run = %+v", run)
	}
	if r.Total < lower.Dur {
		t.Fatalf("total %v below a lap", r.Total)
	}

	var sb strings.Builder
	if _, err := r.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := sb.String()
	if strings.Count(out, "\n") != 4 || !strings.Contains(out, "// 3 ops") || !strings.Contains(out, "(cached)") {
		t.Fatalf("summary:\n%s", out)
	}
}

func TestEmptyStopwatch(t *testing.T) {
	r := NewStopwatch().Report()
	if r.Total != 0 || r.Laps != nil {
		t.Fatalf("report = %+v", r)
	}
	if _, ok := r.Lap("parse"); ok {
		t.Fatalf("empty report has a lap")
	}
}
