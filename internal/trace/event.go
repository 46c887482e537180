package trace

import "time"

// Attr is one key/value annotation on a span's end event.
type Attr struct {
	Key   string
	Value string
}

// Event is one recorded trace event. Seq is assigned by the sink that
// stores the event, so it orders events within that sink.
type Event struct {
	Seq      uint64
	Time     time.Time
	Kind     Kind
	Scope    Scope
	SpanID   uint64 // zero for points and heartbeats
	ParentID uint64
	Name     string // "run_all", "stage.lower", "codegen.swap"
	Detail   string
	Attrs    []Attr
}

// Attr returns the value of key, if the event carries it.
func (ev *Event) Attr(key string) (string, bool) {
	for _, a := range ev.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (ev *Event) clone() *Event {
	cp := *ev
	if len(ev.Attrs) > 0 {
		cp.Attrs = append([]Attr(nil), ev.Attrs...)
	}
	return &cp
}
