package codegen

import (
	"tessera/internal/ir"
	"tessera/internal/region"
)

// LoopBody emits one iteration. It runs once at codegen time; the code it
// emits runs once per index.
type LoopBody func(index region.Ref, b *ir.Builder) error

// bodyError keeps a body's own error apart from loop plumbing failures.
type bodyError struct{ err error }

func (e bodyError) Error() string { return e.err.Error() }

func unwrapBody(op string, loc region.Loc, err error) error {
	if be, ok := err.(bodyError); ok {
		return be.err
	}
	return internalErr(op, loc, err)
}

// IntRangeLoop emits a loop over 0, 1, ..., size-1. The cursor advances
// after the body.
func (e *Emitter) IntRangeLoop(b *ir.Builder, size region.Ref, body LoopBody) error {
	const op = "range"
	span := e.begin("codegen.range")
	defer span.End("")
	loc := region.Here()
	intRef := e.intRef()

	sizeRaw, err := e.validate(loc, b, intRef, size)
	if err != nil {
		return internalErr(op, loc, err)
	}
	cursor, err := b.MakeLocal("iterationIndex", ir.I64, ir.ConstI64(0))
	if err != nil {
		return internalErr(op, loc, err)
	}
	err = b.BuildWhile(
		func(b *ir.Builder) (ir.Value, error) {
			cur, err := b.Load(cursor, "cursor")
			if err != nil {
				return ir.Value{}, err
			}
			return b.ICmp(ir.PredSLT, cur, sizeRaw, "isBeforeEnd")
		},
		func(b *ir.Builder) error {
			cur, err := b.Load(cursor, "index")
			if err != nil {
				return err
			}
			if err := body(e.IntRef(cur), b); err != nil {
				return bodyError{err}
			}
			if b.Terminated() {
				return nil
			}
			return b.AdjustCounter(cursor, 1)
		},
	)
	return unwrapBody(op, loc, err)
}

// IntRangeLoopReverse emits a loop over size-1, ..., 1, 0. The cursor
// starts at size and is decremented before the body.
func (e *Emitter) IntRangeLoopReverse(b *ir.Builder, size region.Ref, body LoopBody) error {
	const op = "range.reverse"
	span := e.begin("codegen.range.reverse")
	defer span.End("")
	loc := region.Here()
	intRef := e.intRef()

	sizeRaw, err := e.validate(loc, b, intRef, size)
	if err != nil {
		return internalErr(op, loc, err)
	}
	cursor, err := b.MakeLocal("iterationIndex", ir.I64, sizeRaw)
	if err != nil {
		return internalErr(op, loc, err)
	}
	err = b.BuildWhile(
		func(b *ir.Builder) (ir.Value, error) {
			cur, err := b.Load(cursor, "cursor")
			if err != nil {
				return ir.Value{}, err
			}
			return b.ICmp(ir.PredSGT, cur, ir.ConstI64(0), "hasMore")
		},
		func(b *ir.Builder) error {
			if err := b.AdjustCounter(cursor, -1); err != nil {
				return err
			}
			cur, err := b.Load(cursor, "index")
			if err != nil {
				return err
			}
			if err := body(e.IntRef(cur), b); err != nil {
				return bodyError{err}
			}
			return nil
		},
	)
	return unwrapBody(op, loc, err)
}
