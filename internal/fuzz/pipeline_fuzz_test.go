package fuzztests

import (
	"context"
	"errors"
	"testing"
	"time"

	"tessera/internal/buildpipeline"
	"tessera/internal/codegen"
	"tessera/internal/config"
	"tessera/internal/script"
	"tessera/internal/testkit"
)

// runTimeout bounds one pipeline run; the VM step limit should trip first.
const runTimeout = 5 * time.Second

const fuzzMaxSteps = 200_000

// FuzzPipeline checks that every script the parser accepts compiles to
// IR with guarded element accesses and runs to a result or a runtime
// panic, never an internal error.
func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	cfg := config.Default()
	cfg.VM.MaxSteps = fuzzMaxSteps

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		if _, err := script.Parse("fuzz.toml", input); err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		req := buildpipeline.Request{Path: "fuzz.toml", Source: input, Config: cfg}

		res, err := buildpipeline.Compile(ctx, req)
		if err != nil {
			t.Fatalf("compile of accepted script failed: %v", err)
		}
		if err := testkit.CheckIndexGuarded(res.Program.Module.Func(buildpipeline.EntryName)); err != nil {
			t.Fatalf("unguarded access: %v", err)
		}

		res, err = buildpipeline.Run(ctx, req)
		var internal *codegen.InternalError
		if errors.As(err, &internal) {
			t.Fatalf("internal error: %v", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("run did not finish within %s", runTimeout)
		}
		if !res.Ran {
			t.Fatalf("run did not reach the VM: %v", err)
		}
	})
}
