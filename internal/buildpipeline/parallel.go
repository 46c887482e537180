package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"tessera/internal/trace"
)

// Mode selects how far RunAll takes each script.
type Mode uint8

const (
	// ModeCompile stops after validation.
	ModeCompile Mode = iota
	// ModeRun also executes and checks each script.
	ModeRun
)

// RunAll processes reqs with up to jobs scripts in flight (0 = GOMAXPROCS).
// Results keep the order of reqs; a failing script does not stop the
// others, and every failure is joined into the returned error.
func RunAll(ctx context.Context, reqs []Request, mode Mode, jobs int, sink ProgressSink) ([]*Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "run_all", trace.CurrentSpan(ctx).SpanID).
		WithExtra("scripts", fmt.Sprint(len(reqs)))
	defer span.End("")
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	files := make([]string, len(reqs))
	for i, r := range reqs {
		files[i] = r.Path
	}
	emitQueued(sink, files)

	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))
	for i := range reqs {
		req := reqs[i]
		if req.Progress == nil {
			req.Progress = sink
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = &Result{Path: req.Path, Err: err}
				return nil
			}
			var res *Result
			var err error
			if mode == ModeRun {
				res, err = Run(gctx, req)
			} else {
				res, err = Compile(gctx, req)
			}
			if res == nil {
				res = &Result{Path: req.Path}
			}
			res.Err = err
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, res := range results {
		switch {
		case res.Err == nil:
		case strings.HasPrefix(res.Err.Error(), res.Path+":"):
			errs = append(errs, res.Err)
		default:
			errs = append(errs, fmt.Errorf("%s: %w", res.Path, res.Err))
		}
	}
	return results, errors.Join(errs...)
}
