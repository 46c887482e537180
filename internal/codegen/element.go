package codegen

import (
	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/types"
)

// LoadResult is an element read out of an array.
type LoadResult struct {
	Ref region.Ref
	// Move is set when the caller owns the value and must consume it; the
	// slot it came from no longer does.
	Move bool
}

func (e *Emitter) elementPtr(b *ir.Builder, elemsPtr, index ir.Value) (ir.Value, error) {
	return b.GEP(elemsPtr, []ir.Value{ir.ConstI64(0), index}, "elemPtr")
}

func (e *Emitter) checkElems(op string, loc region.Loc, elemsPtr ir.Value, elemType types.Reference) error {
	if !e.opts.StructuralChecks {
		return nil
	}
	arr := elemsPtr.Type.Pointee()
	if !arr.IsArray() {
		return internalf(op, loc, "elements pointer is %s, want pointer to an array", elemsPtr.Type)
	}
	want, err := e.regions.TranslateType(elemType)
	if err != nil {
		return internalErr(op, loc, err)
	}
	if !arr.Elem.Equal(want) {
		return internalf(op, loc, "array holds %s, element type translates to %s", arr.Elem, want)
	}
	return nil
}

// LoadElement bounds-checks index, loads the element and returns it
// validated as elemType.
func (e *Emitter) LoadElement(b *ir.Builder, elemsPtr ir.Value, elemType types.Reference, size, index region.Ref) (LoadResult, error) {
	const op = "load"
	span := e.begin("codegen.load")
	defer span.End("")
	loc := region.Here()

	if err := e.checkElems(op, loc, elemsPtr, elemType); err != nil {
		return LoadResult{}, err
	}
	idx, err := e.CheckIndexInBounds(b, size, index)
	if err != nil {
		return LoadResult{}, err
	}
	ptr, err := e.elementPtr(b, elemsPtr, idx)
	if err != nil {
		return LoadResult{}, internalErr(op, loc, err)
	}
	raw, err := b.Load(ptr, "elem")
	if err != nil {
		return LoadResult{}, internalErr(op, loc, err)
	}
	rg := e.regions.RegionFor(elemType)
	ref := rg.Wrap(elemType, raw)
	if _, err := rg.CheckValidReference(loc, b, elemType, ref); err != nil {
		return LoadResult{}, internalErr(op, loc, err)
	}
	return LoadResult{Ref: ref}, nil
}

// StoreInnerArrayMember writes source into slot index. The index is not
// checked here; callers bounds-check first.
func (e *Emitter) StoreInnerArrayMember(b *ir.Builder, elemsPtr, index, source ir.Value) error {
	const op = "store"
	loc := region.Here()

	ptr, err := e.elementPtr(b, elemsPtr, index)
	if err != nil {
		return internalErr(op, loc, err)
	}
	if e.opts.Flares {
		addr, err := b.PtrToInt(ptr, "destAddr")
		if err != nil {
			return internalErr(op, loc, err)
		}
		if err := b.Flare("writing a reference to ", addr); err != nil {
			return internalErr(op, loc, err)
		}
	}
	return internalErr(op, loc, b.Store(source, ptr))
}

// SwapElement replaces slot index with source and returns the previous
// occupant, which the caller now owns.
func (e *Emitter) SwapElement(b *ir.Builder, location types.Location, elemType types.Reference, size region.Ref, elemsPtr ir.Value, index, source region.Ref) (LoadResult, error) {
	const op = "swap"
	span := e.begin("codegen.swap")
	defer span.End("")
	loc := region.Here()

	if location == types.Inline {
		return LoadResult{}, internalErr(op, loc, ErrInlineElements)
	}
	if err := e.checkElems(op, loc, elemsPtr, elemType); err != nil {
		return LoadResult{}, err
	}
	idx, err := e.CheckIndexInBounds(b, size, index)
	if err != nil {
		return LoadResult{}, err
	}
	src, err := e.validate(loc, b, elemType, source)
	if err != nil {
		return LoadResult{}, internalErr(op, loc, err)
	}
	prev, err := e.LoadElement(b, elemsPtr, elemType, size, index)
	if err != nil {
		return LoadResult{}, err
	}
	if err := e.StoreInnerArrayMember(b, elemsPtr, idx, src); err != nil {
		return LoadResult{}, err
	}
	prev.Move = true
	return prev, nil
}

// InitializeElement writes source into an unoccupied slot. Whatever the
// slot held before is not read.
func (e *Emitter) InitializeElement(b *ir.Builder, location types.Location, elemType types.Reference, size region.Ref, elemsPtr ir.Value, index, source region.Ref) error {
	const op = "init"
	span := e.begin("codegen.init")
	defer span.End("")
	loc := region.Here()

	if location == types.Inline {
		return internalErr(op, loc, ErrInlineElements)
	}
	if err := e.checkElems(op, loc, elemsPtr, elemType); err != nil {
		return err
	}
	idx, err := e.CheckIndexInBounds(b, size, index)
	if err != nil {
		return err
	}
	src, err := e.validate(loc, b, elemType, source)
	if err != nil {
		return internalErr(op, loc, err)
	}
	return e.StoreInnerArrayMember(b, elemsPtr, idx, src)
}
