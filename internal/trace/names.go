package trace

import (
	"fmt"
	"strings"
)

// Level is the finest scope recorded.
type Level uint8

const (
	LevelOff    Level = iota // nothing
	LevelError               // driver and script events, meant for a ring dumped on failure
	LevelPhase               // driver events
	LevelDetail              // driver and script events
	LevelDebug               // everything, including single array operations
)

// Scope is the granularity of an event; larger is finer.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // a CLI command or a batch of scripts
	ScopeScript                  // one script and its pipeline stages
	ScopeOp                      // one emitted array operation
)

// Kind tells span boundaries from instant events.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

// StorageMode selects the sinks New builds.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // write every event as it happens
	ModeRing                          // keep the most recent events in memory
	ModeBoth
)

var (
	levelNames = []string{LevelOff: "off", LevelError: "error", LevelPhase: "phase", LevelDetail: "detail", LevelDebug: "debug"}
	scopeNames = []string{ScopeDriver: "driver", ScopeScript: "script", ScopeOp: "op"}
	kindNames  = []string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point", KindHeartbeat: "heartbeat"}
	modeNames  = []string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}
)

func nameOf(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "unknown"
}

// parseName finds s in names, skipping the unnamed zero slot of 1-based
// enums.
func parseName(names []string, what, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name != "" && name == s {
			return i, nil
		}
	}
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			valid = append(valid, name)
		}
	}
	return 0, fmt.Errorf("invalid trace %s: %q (expected: %s)", what, s, strings.Join(valid, "|"))
}

func (l Level) String() string       { return nameOf(levelNames, int(l)) }
func (s Scope) String() string       { return nameOf(scopeNames, int(s)) }
func (k Kind) String() string        { return nameOf(kindNames, int(k)) }
func (m StorageMode) String() string { return nameOf(modeNames, int(m)) }

// ParseLevel converts a level name.
func ParseLevel(s string) (Level, error) {
	i, err := parseName(levelNames, "level", s)
	return Level(i), err //nolint:gosec // index of a short table
}

// ParseMode converts a storage mode name.
func ParseMode(s string) (StorageMode, error) {
	i, err := parseName(modeNames, "mode", s)
	if err != nil {
		return ModeRing, err
	}
	return StorageMode(i), nil //nolint:gosec // index of a short table
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeDriver
	case LevelError, LevelDetail:
		return scope <= ScopeScript
	case LevelDebug:
		return true
	default:
		return false
	}
}
