package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tessera/internal/config"
	"tessera/internal/ir"
	"tessera/internal/observ"
	"tessera/internal/script"
	"tessera/internal/trace"
	"tessera/internal/vm"
)

// Request describes one script to compile or run.
type Request struct {
	Path   string
	Source []byte // read from Path when nil
	Config config.Config

	Cache    *DiskCache
	Progress ProgressSink
}

// Result captures everything the pipeline produced for one script.
type Result struct {
	Path    string
	Script  *script.Script
	Program *Program // nil when served from the cache
	IR      string

	Ran     bool
	Outputs []int64
	Flares  string
	Panic   *vm.VMError

	Cached  bool
	Timings observ.Report
	Err     error
}

// MismatchError reports an op whose result differs from its expect value.
type MismatchError struct {
	Op        int
	Kind      script.OpKind
	Array     string
	Want, Got int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("op[%d] %s %s: expected %d, got %d", e.Op, e.Kind, e.Array, e.Want, e.Got)
}

// Compile parses, lowers and validates a script; the result carries the
// module and its textual IR.
func Compile(ctx context.Context, req Request) (*Result, error) {
	return process(ctx, req, false)
}

// Run compiles a script, executes main on the VM and checks every
// expectation the script declares.
func Run(ctx context.Context, req Request) (*Result, error) {
	return process(ctx, req, true)
}

type pipeline struct {
	req    Request
	run    bool
	res    *Result
	watch  *observ.Stopwatch
	tracer trace.Tracer
	span   *trace.Span
}

func process(ctx context.Context, req Request, run bool) (*Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeScript, "script", trace.CurrentSpan(ctx).SpanID).
		WithExtra("path", req.Path)
	p := &pipeline{
		req:    req,
		run:    run,
		res:    &Result{Path: req.Path},
		watch:  observ.NewStopwatch(),
		tracer: tracer,
		span:   span,
	}
	err := p.execute(ctx)
	p.res.Timings = p.watch.Report()
	p.res.Err = err
	detail := "ok"
	if err != nil {
		detail = "error"
	}
	span.End(detail)
	return p.res, err
}

func (p *pipeline) execute(ctx context.Context) error {
	src := p.req.Source
	var s *script.Script
	err := p.stage(StageParse, func() error {
		if src == nil {
			data, err := os.ReadFile(p.req.Path)
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			src = data
		}
		var err error
		s, err = script.Parse(p.req.Path, src)
		return err
	})
	if err != nil {
		return err
	}
	p.res.Script = s
	if err := ctx.Err(); err != nil {
		return err
	}

	key := CacheKey(src, p.req.Config, p.run)
	if hit, ok := p.fromCache(key); ok {
		return p.replay(hit)
	}

	var prog *Program
	err = p.stage(StageLower, func() error {
		var err error
		prog, err = lower(s, p.req.Config, p.tracer, p.span.ID())
		return err
	})
	if err != nil {
		return err
	}
	p.res.Program = prog

	err = p.stage(StageValidate, func() error {
		if err := ir.Validate(prog.Module); err != nil {
			return err
		}
		var sb strings.Builder
		if err := ir.Dump(&sb, prog.Module); err != nil {
			return err
		}
		p.res.IR = sb.String()
		return nil
	})
	if err != nil {
		return err
	}
	if !p.run {
		p.store(key, prog)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.stage(StageRun, func() error {
		if err := p.exec(prog); err != nil {
			return err
		}
		p.store(key, prog)
		return Check(s, p.res.Outputs, p.res.Panic)
	})
}

// stage runs fn as one timed, traced, reported pipeline stage.
func (p *pipeline) stage(stage Stage, fn func() error) error {
	stop := p.watch.Start(string(stage))
	sp := trace.Begin(p.tracer, trace.ScopeScript, "stage."+string(stage), p.span.ID())
	emitStage(p.req.Progress, p.req.Path, stage, StatusWorking, nil, 0)

	err := fn()

	status, note := StatusDone, ""
	if err != nil {
		status, note = StatusError, err.Error()
	}
	elapsed := stop(note)
	sp.End(string(status))
	emitStage(p.req.Progress, p.req.Path, stage, status, err, elapsed)
	return err
}

// exec runs main against a fresh result buffer.
func (p *pipeline) exec(prog *Program) error {
	var flares bytes.Buffer
	machine := vm.New(prog.Module, vm.Options{MaxSteps: p.req.Config.VM.MaxSteps, Trace: &flares})
	outT := OutType(prog.Slots()).Pointee()
	out, err := machine.AllocType(outT)
	if err != nil {
		return err
	}
	_, callErr := machine.Call(EntryName, int64(out)) //nolint:gosec // pointer encoding
	p.res.Ran = true
	p.res.Flares = flares.String()
	if callErr != nil {
		vmErr, ok := vm.AsVMError(callErr)
		if !ok {
			return callErr
		}
		p.res.Panic = vmErr
	}
	p.res.Outputs = make([]int64, prog.Slots())
	for k := range p.res.Outputs {
		off, err := machine.Layout().FieldOffset(outT, k)
		if err != nil {
			return err
		}
		v, err := machine.ReadI64(out + uint64(off)) //nolint:gosec // offsets are small
		if err != nil {
			return err
		}
		p.res.Outputs[k] = v
	}
	return nil
}

func (p *pipeline) fromCache(key Digest) (*CachedResult, bool) {
	if p.req.Cache == nil {
		return nil, false
	}
	var hit CachedResult
	ok, err := p.req.Cache.Get(key, &hit)
	if err != nil {
		trace.Point(p.tracer, trace.ScopeScript, "cache.error", err.Error(), p.span.ID())
		return nil, false
	}
	if ok {
		trace.Point(p.tracer, trace.ScopeScript, "cache.hit", key.String(), p.span.ID())
	}
	return &hit, ok
}

// replay fills the result from a cache entry as if every stage had run.
func (p *pipeline) replay(hit *CachedResult) error {
	p.res.Cached = true
	p.res.IR = hit.IR
	for _, stage := range []Stage{StageLower, StageValidate} {
		p.watch.Skip(string(stage))
		emitStage(p.req.Progress, p.req.Path, stage, StatusCached, nil, 0)
	}
	if !p.run {
		return nil
	}
	p.watch.Skip(string(StageRun))
	p.res.Ran = hit.Ran
	p.res.Outputs = hit.Outputs
	p.res.Flares = hit.Flares
	if hit.PanicCode != 0 {
		p.res.Panic = &vm.VMError{Code: vm.PanicCode(hit.PanicCode), Message: hit.PanicMessage}
	}
	err := Check(p.res.Script, p.res.Outputs, p.res.Panic)
	status := StatusCached
	if err != nil {
		status = StatusError
	}
	emitStage(p.req.Progress, p.req.Path, StageRun, status, err, 0)
	return err
}

func (p *pipeline) store(key Digest, prog *Program) {
	if p.req.Cache == nil {
		return
	}
	entry := &CachedResult{
		Name:    p.res.Script.Name,
		Region:  prog.Region.String(),
		IR:      p.res.IR,
		Ran:     p.res.Ran,
		Outputs: p.res.Outputs,
		Flares:  p.res.Flares,
	}
	if p.res.Panic != nil {
		entry.PanicCode = int(p.res.Panic.Code)
		entry.PanicMessage = p.res.Panic.Message
	}
	if err := p.req.Cache.Put(key, entry); err != nil {
		trace.Point(p.tracer, trace.ScopeScript, "cache.error", err.Error(), p.span.ID())
	}
}

// Check compares a run against the script's expectations. A panic is an
// error unless the script expects exactly that message; op results are
// only compared for runs that completed.
func Check(s *script.Script, outputs []int64, panicked *vm.VMError) error {
	if s.ExpectPanic != "" {
		if panicked == nil {
			return fmt.Errorf("expected panic %q, run completed", s.ExpectPanic)
		}
		if panicked.Message != s.ExpectPanic {
			return fmt.Errorf("expected panic %q, got %w", s.ExpectPanic, panicked)
		}
		return nil
	}
	if panicked != nil {
		return panicked
	}
	var errs []error
	for k, op := range s.Ops {
		if op.Expect == nil || k >= len(outputs) {
			continue
		}
		if outputs[k] != *op.Expect {
			errs = append(errs, &MismatchError{Op: k, Kind: op.Kind, Array: op.Array, Want: *op.Expect, Got: outputs[k]})
		}
	}
	return errors.Join(errs...)
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		if file == "" {
			continue
		}
		sink.OnEvent(Event{File: file, Stage: StageParse, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
