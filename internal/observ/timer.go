// Package observ measures the pipeline stages of one script.
package observ

import (
	"fmt"
	"io"
	"time"
)

// Lap is one measured stage.
type Lap struct {
	Name   string        `json:"name"`
	Dur    time.Duration `json:"-"`
	MS     float64       `json:"duration_ms"`
	Note   string        `json:"note,omitempty"`
	Cached bool          `json:"cached,omitempty"`
}

// Stopwatch records stage laps in the order they start. It is not safe
// for concurrent use; each script owns one.
type Stopwatch struct {
	laps []Lap
}

// NewStopwatch returns an empty stopwatch.
func NewStopwatch() *Stopwatch { return &Stopwatch{laps: make([]Lap, 0, 4)} }

// Start opens a lap for name. The returned stop closes it with note and
// returns its duration; only the first call counts.
func (s *Stopwatch) Start(name string) (stop func(note string) time.Duration) {
	idx := len(s.laps)
	s.laps = append(s.laps, Lap{Name: name})
	started := time.Now()
	stopped := false
	return func(note string) time.Duration {
		lap := &s.laps[idx]
		if !stopped {
			stopped = true
			lap.Dur = time.Since(started)
			lap.MS = millis(lap.Dur)
			lap.Note = note
		}
		return lap.Dur
	}
}

// Skip records name as served from the cache.
func (s *Stopwatch) Skip(name string) {
	s.laps = append(s.laps, Lap{Name: name, Cached: true})
}

// Report snapshots the laps recorded so far.
func (s *Stopwatch) Report() Report {
	if len(s.laps) == 0 {
		return Report{}
	}
	r := Report{Laps: append([]Lap(nil), s.laps...)}
	for _, lap := range r.Laps {
		r.Total += lap.Dur
	}
	r.TotalMS = millis(r.Total)
	return r
}

// Report is a finished set of laps.
type Report struct {
	Total   time.Duration `json:"-"`
	TotalMS float64       `json:"total_ms"`
	Laps    []Lap         `json:"laps"`
}

// Lap returns the lap called name.
func (r Report) Lap(name string) (Lap, bool) {
	for _, lap := range r.Laps {
		if lap.Name == name {
			return lap, true
		}
	}
	return Lap{}, false
}

// WriteTo prints one aligned line per lap and a total.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var n int64
	write := func(format string, args ...any) error {
		m, err := fmt.Fprintf(w, format, args...)
		n += int64(m)
		return err
	}
	for _, lap := range r.Laps {
		suffix := ""
		switch {
		case lap.Cached:
			suffix = "  (cached)"
		case lap.Note != "":
			suffix = "  // " + lap.Note
		}
		if err := write("  %-10s %8.3f ms%s\n", lap.Name, lap.MS, suffix); err != nil {
			return n, err
		}
	}
	err := write("  %-10s %8.3f ms\n", "total", r.TotalMS)
	return n, err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
