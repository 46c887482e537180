package trace

import (
	"errors"
	"io"
	"os"
	"sync"
)

// gate holds a sink's level. Heartbeats pass every enabled gate.
type gate struct{ level Level }

func (g gate) Level() Level { return g.level }

func (g gate) admits(ev *Event) bool {
	if ev.Kind == KindHeartbeat {
		return g.level != LevelOff
	}
	return g.level.ShouldEmit(ev.Scope)
}

// StreamTracer formats each event onto a writer as it arrives. Write
// errors are dropped so tracing never fails a build.
type StreamTracer struct {
	gate
	format Format

	mu  sync.Mutex
	w   io.Writer
	seq uint64
	buf []byte
}

// NewStreamTracer writes events at level to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{gate: gate{level}, w: w, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	ev.Seq = t.seq
	t.buf = appendEvent(t.buf[:0], ev, t.format)
	_, _ = t.w.Write(t.buf)
}

func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the writer unless it is stderr.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok && t.w != os.Stderr {
		return c.Close()
	}
	return nil
}

// RingTracer keeps the last capacity events it admitted.
type RingTracer struct {
	gate

	mu     sync.Mutex
	events []Event
	total  uint64 // events ever stored; the next one goes to total % cap
}

// NewRingTracer keeps up to capacity events at level.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{gate: gate{level}, events: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	stored := ev.clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	stored.Seq = t.total
	t.events[(t.total-1)%uint64(len(t.events))] = *stored
}

// Snapshot returns the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := uint64(len(t.events))
	if t.total <= n {
		return append([]Event(nil), t.events[:t.total]...)
	}
	out := make([]Event, 0, n)
	for seq := t.total - n; seq < t.total; seq++ {
		out = append(out, t.events[seq%n])
	}
	return out
}

// Dump writes the kept events to w, oldest first.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	var buf []byte
	for _, ev := range t.Snapshot() {
		buf = appendEvent(buf[:0], &ev, format)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// fanout hands a copy of every event to each sink.
type fanout struct {
	gate
	sinks []Tracer
}

func (f *fanout) Emit(ev *Event) {
	for _, s := range f.sinks {
		s.Emit(ev.clone())
	}
}

func (f *fanout) Flush() error {
	var errs []error
	for _, s := range f.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

func (f *fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
