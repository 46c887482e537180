package codegen

import (
	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/trace"
	"tessera/internal/types"
)

// Options tune what the emitter produces.
type Options struct {
	// StructuralChecks enables compile-time self-checks of wrapper layouts
	// and pointer types.
	StructuralChecks bool
	// Flares emits a runtime diagnostic for every element store.
	Flares bool
}

// DefaultOptions is what the CLI uses without a config file.
func DefaultOptions() Options {
	return Options{StructuralChecks: true}
}

// Emitter emits array operations into one function at a time.
type Emitter struct {
	types   *types.Interner
	regions *region.Registry
	opts    Options
	tracer  trace.Tracer
	parent  uint64
}

// New creates an emitter over the given region registry.
func New(regions *region.Registry, opts Options) *Emitter {
	return &Emitter{
		types:   regions.Types(),
		regions: regions,
		opts:    opts,
		tracer:  trace.Nop,
	}
}

// WithTracer makes every emitted operation open an op-scoped span under
// parent.
func (e *Emitter) WithTracer(t trace.Tracer, parent uint64) *Emitter {
	if t == nil {
		t = trace.Nop
	}
	e.tracer = t
	e.parent = parent
	return e
}

// Regions returns the registry the emitter validates against.
func (e *Emitter) Regions() *region.Registry { return e.regions }

// Options returns the emitter options.
func (e *Emitter) Options() Options { return e.opts }

func (e *Emitter) begin(name string) *trace.Span {
	return trace.Begin(e.tracer, trace.ScopeOp, name, e.parent)
}

func (e *Emitter) intRef() types.Reference {
	return e.types.Builtins().IntRef
}

// IntRef wraps an i64 value as an int reference in the owning region.
func (e *Emitter) IntRef(v ir.Value) region.Ref {
	ref := e.intRef()
	return e.regions.RegionFor(ref).Wrap(ref, v)
}

// validate checks ref as a refType and returns its raw value.
func (e *Emitter) validate(loc region.Loc, b *ir.Builder, refType types.Reference, ref region.Ref) (ir.Value, error) {
	return e.regions.RegionFor(refType).CheckValidReference(loc, b, refType, ref)
}

// Validate checks ref as refType and returns the raw value for use in
// caller-emitted code.
func (e *Emitter) Validate(b *ir.Builder, refType types.Reference, ref region.Ref) (ir.Value, error) {
	loc := region.Here()
	raw, err := e.validate(loc, b, refType, ref)
	return raw, internalErr("validate", loc, err)
}
