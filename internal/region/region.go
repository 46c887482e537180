package region

import (
	"fmt"
	"strings"

	"tessera/internal/ir"
	"tessera/internal/types"
)

// ID names a region kind.
type ID uint8

const (
	NoRegion ID = iota
	Unsafe
	Assist
	Resilient
)

func (id ID) String() string {
	switch id {
	case Unsafe:
		return "unsafe"
	case Assist:
		return "assist"
	case Resilient:
		return "resilient"
	default:
		return "none"
	}
}

// ParseID converts a region name.
func ParseID(s string) (ID, error) {
	switch strings.ToLower(s) {
	case "unsafe":
		return Unsafe, nil
	case "assist":
		return Assist, nil
	case "resilient":
		return Resilient, nil
	default:
		return NoRegion, fmt.Errorf("invalid region: %q (expected: unsafe|assist|resilient)", s)
	}
}

// Structural offsets inside wrappers. They never change per array kind.
const (
	ControlBlockField        = 0
	KnownSizeContentsField   = 1
	UnknownSizeLengthField   = 1
	UnknownSizeContentsField = 2
	StructFieldsStart        = 1

	// RefCountField indexes the control block.
	RefCountField = 0
)

// ReferenceValidator is the capability every region provides.
type ReferenceValidator interface {
	ID() ID
	// ControlBlock is the bookkeeping header of wrappers owned by the region.
	ControlBlock() *ir.Type
	// Wrap pairs a raw value with its declared type. Nothing is checked.
	Wrap(refType types.Reference, raw ir.Value) Ref
	// CheckValidReference checks ref against refType, emits the region's
	// runtime checks and returns the raw value.
	CheckValidReference(loc Loc, b *ir.Builder, refType types.Reference, ref Ref) (ir.Value, error)
}

type unsafeRegion struct {
	reg *Registry
	cb  *ir.Type
}

func (r *unsafeRegion) ID() ID                 { return Unsafe }
func (r *unsafeRegion) ControlBlock() *ir.Type { return r.cb }

func (r *unsafeRegion) Wrap(refType types.Reference, raw ir.Value) Ref {
	return Ref{raw: raw, declared: refType, region: Unsafe}
}

func (r *unsafeRegion) CheckValidReference(loc Loc, _ *ir.Builder, refType types.Reference, ref Ref) (ir.Value, error) {
	if err := r.reg.checkStructure(loc, Unsafe, refType, ref); err != nil {
		return ir.Value{}, err
	}
	return ref.raw, nil
}

type assistRegion struct {
	reg *Registry
	cb  *ir.Type
}

func (r *assistRegion) ID() ID                 { return Assist }
func (r *assistRegion) ControlBlock() *ir.Type { return r.cb }

func (r *assistRegion) Wrap(refType types.Reference, raw ir.Value) Ref {
	return Ref{raw: raw, declared: refType, region: Assist}
}

func (r *assistRegion) CheckValidReference(loc Loc, b *ir.Builder, refType types.Reference, ref Ref) (ir.Value, error) {
	if err := r.reg.checkStructure(loc, Assist, refType, ref); err != nil {
		return ir.Value{}, err
	}
	if r.reg.isPointer(refType) {
		if err := emitNonNull(b, ref.raw); err != nil {
			return ir.Value{}, err
		}
	}
	return ref.raw, nil
}

type resilientRegion struct {
	reg *Registry
	cb  *ir.Type
}

func (r *resilientRegion) ID() ID                 { return Resilient }
func (r *resilientRegion) ControlBlock() *ir.Type { return r.cb }

func (r *resilientRegion) Wrap(refType types.Reference, raw ir.Value) Ref {
	return Ref{raw: raw, declared: refType, region: Resilient}
}

func (r *resilientRegion) CheckValidReference(loc Loc, b *ir.Builder, refType types.Reference, ref Ref) (ir.Value, error) {
	if err := r.reg.checkStructure(loc, Resilient, refType, ref); err != nil {
		return ir.Value{}, err
	}
	if r.reg.isPointer(refType) {
		if err := emitNonNull(b, ref.raw); err != nil {
			return ir.Value{}, err
		}
		if err := emitLive(b, ref.raw); err != nil {
			return ir.Value{}, err
		}
	}
	return ref.raw, nil
}

func emitNonNull(b *ir.Builder, raw ir.Value) error {
	nonNull, err := b.ICmp(ir.PredNE, raw, ir.Null(raw.Type), "nonNull")
	if err != nil {
		return err
	}
	return b.Assert(nonNull, ir.PanicInvalidRef, "Invalid reference!")
}

// emitLive asserts the referend's reference count is positive.
func emitLive(b *ir.Builder, raw ir.Value) error {
	cbPtr, err := b.StructGEP(raw, ControlBlockField, "controlBlockPtr")
	if err != nil {
		return err
	}
	rcPtr, err := b.StructGEP(cbPtr, RefCountField, "rcPtr")
	if err != nil {
		return err
	}
	rc, err := b.Load(rcPtr, "rc")
	if err != nil {
		return err
	}
	live, err := b.ICmp(ir.PredSGT, rc, ir.ConstI64(0), "isLive")
	if err != nil {
		return err
	}
	return b.Assert(live, ir.PanicDangling, "Dangling reference!")
}
