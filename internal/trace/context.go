package trace

import "context"

type ctxKey struct{}

// binding is what a context carries: the tracer and the innermost span
// work started from that context should nest under.
type binding struct {
	tracer Tracer
	span   SpanContext
}

// SpanContext identifies the enclosing span.
type SpanContext struct {
	SpanID uint64
}

func bindingOf(ctx context.Context) binding {
	if ctx != nil {
		if b, ok := ctx.Value(ctxKey{}).(binding); ok {
			return b
		}
	}
	return binding{tracer: Nop}
}

// FromContext returns the tracer bound to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return bindingOf(ctx).tracer
}

// WithTracer binds t to ctx; the enclosing span is reset.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, binding{tracer: t})
}

// CurrentSpan returns the enclosing span bound to ctx, zero when none.
func CurrentSpan(ctx context.Context) SpanContext {
	return bindingOf(ctx).span
}

// WithSpanContext makes sc the enclosing span for work started from ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	b := bindingOf(ctx)
	b.span = sc
	return context.WithValue(ctx, ctxKey{}, b)
}
