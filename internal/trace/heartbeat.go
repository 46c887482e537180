package trace

import (
	"context"
	"strconv"
	"time"
)

// Heartbeat emits a driver-scope event at a fixed interval, so a trace
// that keeps beating without span ends shows a stuck pipeline.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat starts beating into t. It returns nil when t records
// nothing or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || t.Level() == LevelOff || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go h.beat(ctx, t, interval)
	return h
}

func (h *Heartbeat) beat(ctx context.Context, t Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	started := time.Now()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
				Attrs:  []Attr{{Key: "uptime", Value: now.Sub(started).Round(time.Millisecond).String()}},
			})
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. It may be called
// more than once and on a nil Heartbeat.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
