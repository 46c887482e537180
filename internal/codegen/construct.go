package codegen

import (
	"fmt"

	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/types"
)

// Generator produces the element for one index of an array literal.
type Generator func(index region.Ref, b *ir.Builder) (region.Ref, error)

// Consumer takes ownership of one element during destruction.
type Consumer func(elem LoadResult, b *ir.Builder) error

// initControlBlock marks a fresh wrapper as live with one owner.
func (e *Emitter) initControlBlock(b *ir.Builder, w WrapperPtr) error {
	cbPtr, err := b.StructGEP(w.Ptr, region.ControlBlockField, "controlBlockPtr")
	if err != nil {
		return err
	}
	cb := cbPtr.Type.Pointee()
	for i := range cb.Fields {
		fieldPtr, err := b.StructGEP(cbPtr, i, "cbField")
		if err != nil {
			return err
		}
		init := int64(0)
		if i == region.RefCountField {
			init = 1
		}
		if err := b.Store(ir.ConstI64(init), fieldPtr); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) arrayElem(op string, loc region.Loc, w WrapperPtr) (types.Reference, bool, uint32, error) {
	elem, known, length, ok := e.types.ArrayInfo(w.Type)
	if !ok {
		return types.Reference{}, false, 0, internalf(op, loc, "%s is not an array", e.types.Label(w.Type))
	}
	return elem, known, length, nil
}

// ConstructKnownSizeArray fills a fresh known-size wrapper with elems.
func (e *Emitter) ConstructKnownSizeArray(b *ir.Builder, w WrapperPtr, elems []region.Ref) error {
	const op = "construct.ksa"
	span := e.begin("codegen.construct.ksa")
	defer span.End("")
	loc := region.Here()

	elemType, known, length, err := e.arrayElem(op, loc, w)
	if err != nil {
		return err
	}
	if !known {
		return internalf(op, loc, "%s has no static length", e.types.Label(w.Type))
	}
	if len(elems) != int(length) {
		return internalf(op, loc, "%d elements for an array of %d", len(elems), length)
	}
	if err := e.initControlBlock(b, w); err != nil {
		return internalErr(op, loc, err)
	}
	elemsPtr, err := e.KnownSizeArrayContentsPtr(b, w)
	if err != nil {
		return err
	}
	size := e.IntRef(ir.ConstI64(int64(length)))
	for i, el := range elems {
		if err := e.InitializeElement(b, types.Yonder, elemType, size, elemsPtr, e.IntRef(ir.ConstI64(int64(i))), el); err != nil {
			return err
		}
	}
	return nil
}

// ConstructUnknownSizeArray stores size into a fresh unknown-size wrapper
// and fills it with generate(0), ..., generate(size-1).
func (e *Emitter) ConstructUnknownSizeArray(b *ir.Builder, w WrapperPtr, size region.Ref, generate Generator) error {
	const op = "construct.usa"
	span := e.begin("codegen.construct.usa")
	defer span.End("")
	loc := region.Here()

	elemType, known, _, err := e.arrayElem(op, loc, w)
	if err != nil {
		return err
	}
	if known {
		return internalf(op, loc, "%s has a static length", e.types.Label(w.Type))
	}
	sizeRaw, err := e.validate(loc, b, e.intRef(), size)
	if err != nil {
		return internalErr(op, loc, err)
	}
	if err := e.initControlBlock(b, w); err != nil {
		return internalErr(op, loc, err)
	}
	lenPtr, err := e.UnknownSizeArrayLengthPtr(b, w)
	if err != nil {
		return err
	}
	if err := b.Store(sizeRaw, lenPtr); err != nil {
		return internalErr(op, loc, err)
	}
	elemsPtr, err := e.UnknownSizeArrayContentsPtr(b, w)
	if err != nil {
		return err
	}
	return e.IntRangeLoop(b, size, func(index region.Ref, b *ir.Builder) error {
		el, err := generate(index, b)
		if err != nil {
			return err
		}
		return e.InitializeElement(b, types.Yonder, elemType, size, elemsPtr, index, el)
	})
}

// DestroyArrayElements hands every element, last to first, to consume and
// then marks the wrapper dead.
func (e *Emitter) DestroyArrayElements(b *ir.Builder, w WrapperPtr, consume Consumer) error {
	const op = "destroy"
	span := e.begin("codegen.destroy")
	defer span.End("")
	loc := region.Here()

	elemType, _, _, err := e.arrayElem(op, loc, w)
	if err != nil {
		return err
	}
	size, err := e.ArrayLength(b, w)
	if err != nil {
		return err
	}
	elemsPtr, err := e.ElementsPtr(b, w)
	if err != nil {
		return err
	}
	err = e.IntRangeLoopReverse(b, size, func(index region.Ref, b *ir.Builder) error {
		el, err := e.LoadElement(b, elemsPtr, elemType, size, index)
		if err != nil {
			return err
		}
		el.Move = true
		return consume(el, b)
	})
	if err != nil {
		return err
	}
	cbPtr, err := b.StructGEP(w.Ptr, region.ControlBlockField, "controlBlockPtr")
	if err != nil {
		return internalErr(op, loc, err)
	}
	rcPtr, err := b.StructGEP(cbPtr, region.RefCountField, "rcPtr")
	if err != nil {
		return internalErr(op, loc, err)
	}
	return internalErr(op, loc, b.Store(ir.ConstI64(0), rcPtr))
}

// ConstructStruct fills a fresh struct wrapper.
func (e *Emitter) ConstructStruct(b *ir.Builder, w WrapperPtr, fields []region.Ref) error {
	const op = "construct.struct"
	loc := region.Here()

	t, ok := e.types.Lookup(w.Type)
	if !ok || t.Kind != types.KindStruct {
		return internalf(op, loc, "%s is not a struct", e.types.Label(w.Type))
	}
	if len(fields) != len(t.Fields) {
		return internalf(op, loc, "%d values for %d fields of %s", len(fields), len(t.Fields), t.Name)
	}
	if err := e.initControlBlock(b, w); err != nil {
		return internalErr(op, loc, err)
	}
	for i, f := range t.Fields {
		raw, err := e.validate(loc, b, f.Type, fields[i])
		if err != nil {
			return internalErr(op, loc, fmt.Errorf("field %s: %w", f.Name, err))
		}
		ptr, err := b.StructGEP(w.Ptr, region.StructFieldsStart+i, f.Name+"Ptr")
		if err != nil {
			return internalErr(op, loc, err)
		}
		if err := b.Store(raw, ptr); err != nil {
			return internalErr(op, loc, err)
		}
	}
	return nil
}

// LoadField reads field i of a struct wrapper as its declared type.
func (e *Emitter) LoadField(b *ir.Builder, w WrapperPtr, i int) (region.Ref, error) {
	const op = "field"
	loc := region.Here()

	t, ok := e.types.Lookup(w.Type)
	if !ok || t.Kind != types.KindStruct || i < 0 || i >= len(t.Fields) {
		return region.Ref{}, internalf(op, loc, "no field %d in %s", i, e.types.Label(w.Type))
	}
	f := t.Fields[i]
	ptr, err := b.StructGEP(w.Ptr, region.StructFieldsStart+i, f.Name+"Ptr")
	if err != nil {
		return region.Ref{}, internalErr(op, loc, err)
	}
	raw, err := b.Load(ptr, f.Name)
	if err != nil {
		return region.Ref{}, internalErr(op, loc, err)
	}
	rg := e.regions.RegionFor(f.Type)
	ref := rg.Wrap(f.Type, raw)
	if _, err := rg.CheckValidReference(loc, b, f.Type, ref); err != nil {
		return region.Ref{}, internalErr(op, loc, err)
	}
	return ref, nil
}
