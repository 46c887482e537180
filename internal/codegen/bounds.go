package codegen

import (
	"tessera/internal/ir"
	"tessera/internal/region"
)

// CheckIndexInBounds emits `0 <= index && index < size` and a fatal
// assertion on it, and returns the raw index.
func (e *Emitter) CheckIndexInBounds(b *ir.Builder, size, index region.Ref) (ir.Value, error) {
	const op = "bounds"
	loc := region.Here()
	intRef := e.intRef()

	sizeRaw, err := e.validate(loc, b, intRef, size)
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	indexRaw, err := e.validate(loc, b, intRef, index)
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	if !sizeRaw.Type.Equal(ir.I64) || !indexRaw.Type.Equal(ir.I64) {
		return ir.Value{}, internalf(op, loc, "size and index must be i64, got %s and %s", sizeRaw.Type, indexRaw.Type)
	}

	isNonNegative, err := b.ICmp(ir.PredSGE, indexRaw, ir.ConstI64(0), "isNonNegative")
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	isUnderLength, err := b.ICmp(ir.PredSLT, indexRaw, sizeRaw, "isUnderLength")
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	isWithinBounds, err := b.And(isNonNegative, isUnderLength, "isWithinBounds")
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	if err := b.Assert(isWithinBounds, ir.PanicBounds, "Index out of bounds!"); err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	return indexRaw, nil
}
