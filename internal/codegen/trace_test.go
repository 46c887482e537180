package codegen

import (
	"testing"

	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/trace"
)

func TestOperationsOpenSpans(t *testing.T) {
	fx := newFixture(t, region.Unsafe, DefaultOptions())
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	fx.em.WithTracer(ring, 0)

	f := ir.NewFunc("traced", ir.Void)
	b := ir.NewBuilder(f)
	err := fx.em.IntRangeLoop(b, fx.em.IntRef(ir.ConstI64(2)), func(region.Ref, *ir.Builder) error { return nil })
	if err != nil {
		t.Fatalf("loop: %v", err)
	}

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want begin+end", len(events))
	}
	if events[0].Kind != trace.KindSpanBegin || events[0].Name != "codegen.range" || events[0].Scope != trace.ScopeOp {
		t.Fatalf("unexpected begin event %+v", events[0])
	}
	if events[1].Kind != trace.KindSpanEnd || events[1].SpanID != events[0].SpanID {
		t.Fatalf("unexpected end event %+v", events[1])
	}
}
