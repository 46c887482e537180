// Package trace records what the tessera pipeline is doing.
//
// Events are grouped in spans. A driver span covers a batch of scripts,
// script spans cover one script and its stages, and op spans cover a
// single emitted array operation:
//
//	run_all
//	  script {path=swap.toml}
//	    stage.lower
//	      codegen.swap
//
// The level picks the finest scope that is recorded. A stream sink writes
// each event as it happens; a ring sink keeps the most recent ones so a
// failed batch can print what led up to the failure.
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeScript, "stage.lower", parent)
//	defer span.End("")
package trace
