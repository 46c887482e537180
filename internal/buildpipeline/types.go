package buildpipeline

import "time"

// Stage is one step a script goes through.
type Stage string

const (
	StageParse    Stage = "parse"    // decode and validate the TOML
	StageLower    Stage = "lower"    // emit main through the codegen core
	StageValidate Stage = "validate" // structural IR checks and textual dump
	StageRun      Stage = "run"      // execute main and check expectations
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageParse, StageLower, StageValidate, StageRun}

// Label is the progressive form shown while the stage is working.
func (s Stage) Label() string {
	switch s {
	case StageParse:
		return "parsing"
	case StageLower:
		return "lowering"
	case StageValidate:
		return "validating"
	case StageRun:
		return "running"
	}
	return string(s)
}

// Status is where a script stands within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached" // replayed from the build cache
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event is one progress report for File.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives events; RunAll calls it from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}
