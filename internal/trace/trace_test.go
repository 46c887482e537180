package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeScript, true},
		{LevelError, ScopeOp, false},
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeScript, false},
		{LevelDetail, ScopeScript, true},
		{LevelDetail, ScopeOp, false},
		{LevelDebug, ScopeOp, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	if l, err := ParseLevel(" Debug "); err != nil || l != LevelDebug {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if l, err := ParseLevel("off"); err != nil || l != LevelOff {
		t.Fatalf("ParseLevel(off) = %v, %v", l, err)
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	_, err := ParseMode("disk")
	if err == nil || !strings.Contains(err.Error(), "stream|ring|both") {
		t.Fatalf("ParseMode(disk) err = %v", err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatAuto {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
	if Scope(9).String() != "unknown" {
		t.Fatalf("out of range scope should be unknown")
	}
}

func TestStreamTextSpan(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	root := Begin(tr, ScopeScript, "script", 0)
	span := Begin(tr, ScopeOp, "codegen.swap", root.ID())
	span.WithExtra("index", "1").End("ok")
	root.End("")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %q", buf.String())
	}
	if lines[0] != "000001 script > script" {
		t.Fatalf("begin line = %q", lines[0])
	}
	if lines[2] != `000003 op       < codegen.swap [ok] index="1"` {
		t.Fatalf("end line = %q", lines[2])
	}
}

func TestDisabledSpan(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	span := Begin(tr, ScopeOp, "codegen.load", 0)
	if span == nil || span.ID() != 0 {
		t.Fatalf("filtered span = %+v", span)
	}
	if d := span.WithExtra("k", "v").End(""); d != 0 || buf.Len() != 0 {
		t.Fatalf("filtered span wrote %q", buf.String())
	}
	if Begin(nil, ScopeDriver, "x", 0).ID() != 0 {
		t.Fatalf("nil tracer must yield an inert span")
	}
}

func TestRingDumpNDJSON(t *testing.T) {
	ring := NewRingTracer(2, LevelDetail)
	for _, name := range []string{"parse", "lower", "run"} {
		Point(ring, ScopeScript, name, "", 0)
	}
	Point(ring, ScopeOp, "codegen.load", "", 0)

	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "lower" || events[1].Name != "run" {
		t.Fatalf("unexpected ring contents: %+v", events)
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("seq = %d, %d", events[0].Seq, events[1].Seq)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(buf.String(), `"name":"run"`) || strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("ndjson = %s", buf.String())
	}
}

func TestSpanAttrsReachRing(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	Begin(ring, ScopeScript, "script", 0).WithExtra("path", "a.toml").End("ok")
	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if v, ok := events[1].Attr("path"); !ok || v != "a.toml" {
		t.Fatalf("path attr = %q, %v", v, ok)
	}
}

func TestNewSelectsSinks(t *testing.T) {
	tr, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil || tr != Nop {
		t.Fatalf("off = %v, %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelDetail, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("both: %v", err)
	}
	ring := RingOf(tr)
	if ring == nil {
		t.Fatalf("both mode has no ring")
	}
	Point(tr, ScopeScript, "cache.hit", "", 0)
	if len(ring.Snapshot()) != 1 || !strings.Contains(buf.String(), "cache.hit") {
		t.Fatalf("event not fanned out: ring=%d stream=%q", len(ring.Snapshot()), buf.String())
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop from empty context")
	}
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 42})
	if RingOf(FromContext(ctx)) != ring {
		t.Fatalf("tracer lost after WithSpanContext")
	}
	if CurrentSpan(ctx).SpanID != 42 {
		t.Fatalf("span context = %+v", CurrentSpan(ctx))
	}
	if CurrentSpan(WithTracer(ctx, ring)).SpanID != 0 {
		t.Fatalf("WithTracer must reset the enclosing span")
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat on Nop must be nil")
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()

	ring := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	events := ring.Snapshot()
	if len(events) == 0 || events[0].Kind != KindHeartbeat || events[0].Detail != "#1" {
		t.Fatalf("heartbeat events = %+v", events)
	}
}
