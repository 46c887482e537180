package trace

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format is the encoding of written events.
type Format uint8

const (
	FormatAuto   Format = iota // text, or ndjson for *.ndjson outputs
	FormatText                 // one aligned line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a format name; "" means auto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

var kindMarks = []byte{KindSpanBegin: '>', KindSpanEnd: '<', KindPoint: '.', KindHeartbeat: '~'}

func appendEvent(dst []byte, ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendJSON(dst, ev)
	}
	return appendText(dst, ev)
}

// appendText renders "seq scope  mark name [detail] key=value ...". Child
// events are indented one step.
func appendText(dst []byte, ev *Event) []byte {
	dst = append(dst, fmt.Sprintf("%06d %-6s ", ev.Seq, ev.Scope)...)
	if ev.ParentID != 0 {
		dst = append(dst, "  "...)
	}
	mark := byte('?')
	if int(ev.Kind) < len(kindMarks) && kindMarks[ev.Kind] != 0 {
		mark = kindMarks[ev.Kind]
	}
	dst = append(dst, mark, ' ')
	dst = append(dst, ev.Name...)
	if ev.Detail != "" {
		dst = append(dst, " ["...)
		dst = append(dst, ev.Detail...)
		dst = append(dst, ']')
	}
	for _, a := range ev.Attrs {
		dst = append(dst, ' ')
		dst = append(dst, a.Key...)
		dst = append(dst, '=')
		dst = strconv.AppendQuote(dst, a.Value)
	}
	return append(dst, '\n')
}

type jsonEvent struct {
	Seq    uint64            `json:"seq"`
	Time   string            `json:"time"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func appendJSON(dst []byte, ev *Event) []byte {
	j := jsonEvent{
		Seq:    ev.Seq,
		Time:   ev.Time.UTC().Format(time.RFC3339Nano),
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.SpanID,
		Parent: ev.ParentID,
		Name:   ev.Name,
		Detail: ev.Detail,
	}
	if len(ev.Attrs) > 0 {
		j.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			j.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(j)
	if err != nil {
		return append(dst, fmt.Sprintf("{\"error\":%q}\n", err.Error())...)
	}
	dst = append(dst, data...)
	return append(dst, '\n')
}
