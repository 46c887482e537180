package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Level() Level
	Flush() error
	Close() error
}

// Active reports whether t records anything at scope.
func Active(t Tracer, scope Scope) bool {
	return t != nil && t.Level().ShouldEmit(scope)
}

// Nop discards everything.
var Nop Tracer = nop{}

type nop struct{}

func (nop) Emit(*Event)  {}
func (nop) Level() Level { return LevelOff }
func (nop) Flush() error { return nil }
func (nop) Close() error { return nil }

const defaultRingSize = 4096

// Config describes the tracer New builds.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // stream destination; OutputPath is used when nil
	OutputPath string    // "-" or "" for stderr
	RingSize   int
	Heartbeat  time.Duration
}

// New builds the tracer cfg describes; LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
			format = FormatNDJSON
		}
	}

	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, format)
		if cfg.Mode == ModeStream {
			return stream, nil
		}
		return &fanout{gate: gate{cfg.Level}, sinks: []Tracer{stream, NewRingTracer(cfg.RingSize, cfg.Level)}}, nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// RingOf returns the ring sink behind t, if it has one.
func RingOf(t Tracer) *RingTracer {
	switch tt := t.(type) {
	case *RingTracer:
		return tt
	case *fanout:
		for _, s := range tt.sinks {
			if r := RingOf(s); r != nil {
				return r
			}
		}
	}
	return nil
}
