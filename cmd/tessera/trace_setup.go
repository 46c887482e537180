package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tessera/internal/config"
	"tessera/internal/trace"
)

// setupTracing initializes the tracer described by cfg and attaches it to
// the command context. The returned cleanup stops the heartbeat, dumps the
// ring when failed is set, and closes the tracer.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(failed bool), error) {
	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace configuration: %w", err)
	}
	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, tcfg.Heartbeat)

	cleanup := func(failed bool) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if ring := trace.RingOf(tracer); ring != nil && failed && tcfg.Mode == trace.ModeRing {
			dumpRing(cmd.ErrOrStderr(), ring, tcfg.Format)
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func dumpRing(w io.Writer, ring *trace.RingTracer, format trace.Format) {
	fmt.Fprintln(w, "trace: last events before the failure:")
	if err := ring.Dump(w, format); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
