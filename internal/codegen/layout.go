package codegen

import (
	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/types"
)

// WrapperPtr is a validated pointer to the wrapper of a yonder referend.
type WrapperPtr struct {
	Type types.TypeID
	Ptr  ir.Value
}

// Wrapper validates ref as a yonder reference and returns its wrapper
// pointer.
func (e *Emitter) Wrapper(b *ir.Builder, refType types.Reference, ref region.Ref) (WrapperPtr, error) {
	loc := region.Here()
	if refType.Location != types.Yonder {
		return WrapperPtr{}, internalf("wrapper", loc, "%s is not a yonder reference", refType)
	}
	raw, err := e.validate(loc, b, refType, ref)
	if err != nil {
		return WrapperPtr{}, internalErr("wrapper", loc, err)
	}
	return WrapperPtr{Type: refType.Referend, Ptr: raw}, nil
}

func (e *Emitter) checkKind(op string, loc region.Loc, w WrapperPtr, kind types.Kind) error {
	if !e.opts.StructuralChecks {
		return nil
	}
	t, ok := e.types.Lookup(w.Type)
	if !ok || t.Kind != kind {
		return internalf(op, loc, "wrapper of %s used as %s", e.types.Label(w.Type), kind)
	}
	want, err := e.regions.WrapperType(w.Type)
	if err != nil {
		return internalErr(op, loc, err)
	}
	if !w.Ptr.Type.Equal(ir.PtrTo(want)) {
		return internalf(op, loc, "wrapper pointer is %s, want %s*", w.Ptr.Type, want)
	}
	return nil
}

// KnownSizeArrayContentsPtr returns the address of a known-size array's
// contents, right after the control block.
func (e *Emitter) KnownSizeArrayContentsPtr(b *ir.Builder, w WrapperPtr) (ir.Value, error) {
	const op = "ksa.contents"
	loc := region.Here()
	if err := e.checkKind(op, loc, w, types.KindKnownSizeArray); err != nil {
		return ir.Value{}, err
	}
	ptr, err := b.StructGEP(w.Ptr, region.KnownSizeContentsField, "ksaElemsPtr")
	return ptr, internalErr(op, loc, err)
}

// UnknownSizeArrayContentsPtr returns the address of an unknown-size
// array's contents, after the control block and the length.
func (e *Emitter) UnknownSizeArrayContentsPtr(b *ir.Builder, w WrapperPtr) (ir.Value, error) {
	const op = "usa.contents"
	loc := region.Here()
	if err := e.checkKind(op, loc, w, types.KindUnknownSizeArray); err != nil {
		return ir.Value{}, err
	}
	ptr, err := b.StructGEP(w.Ptr, region.UnknownSizeContentsField, "usaElemsPtr")
	return ptr, internalErr(op, loc, err)
}

// UnknownSizeArrayLengthPtr returns the address of an unknown-size
// array's stored length.
func (e *Emitter) UnknownSizeArrayLengthPtr(b *ir.Builder, w WrapperPtr) (ir.Value, error) {
	const op = "usa.length"
	loc := region.Here()
	if err := e.checkKind(op, loc, w, types.KindUnknownSizeArray); err != nil {
		return ir.Value{}, err
	}
	ptr, err := b.StructGEP(w.Ptr, region.UnknownSizeLengthField, "usaLenPtr")
	if err != nil {
		return ir.Value{}, internalErr(op, loc, err)
	}
	if e.opts.StructuralChecks && !ptr.Type.Equal(ir.PtrTo(ir.I64)) {
		return ir.Value{}, internalf(op, loc, "length pointer is %s, want i64*", ptr.Type)
	}
	return ptr, nil
}

// ElementsPtr returns the contents address of either array kind.
func (e *Emitter) ElementsPtr(b *ir.Builder, w WrapperPtr) (ir.Value, error) {
	if _, known, _, ok := e.types.ArrayInfo(w.Type); ok && known {
		return e.KnownSizeArrayContentsPtr(b, w)
	}
	return e.UnknownSizeArrayContentsPtr(b, w)
}

// ArrayLength returns the element count as an int reference: a constant
// for known-size arrays, a load of the length field otherwise.
func (e *Emitter) ArrayLength(b *ir.Builder, w WrapperPtr) (region.Ref, error) {
	span := e.begin("codegen.len")
	defer span.End("")

	_, known, length, ok := e.types.ArrayInfo(w.Type)
	if !ok {
		return region.Ref{}, internalf("len", region.Here(), "%s is not an array", e.types.Label(w.Type))
	}
	if known {
		return e.IntRef(ir.ConstI64(int64(length))), nil
	}
	lenPtr, err := e.UnknownSizeArrayLengthPtr(b, w)
	if err != nil {
		return region.Ref{}, err
	}
	n, err := b.Load(lenPtr, "usaLen")
	if err != nil {
		return region.Ref{}, internalErr("len", region.Here(), err)
	}
	return e.IntRef(n), nil
}
