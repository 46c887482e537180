// Package layout computes byte sizes, alignments and field offsets of IR
// types, the way the VM lays values out in memory.
package layout

import (
	"sync"

	"fortio.org/safecast"

	"tessera/internal/ir"
)

// TypeLayout is the memory layout of one type.
type TypeLayout struct {
	Size         int
	Align        int
	FieldOffsets []int // structs only
	Stride       int   // arrays only: distance between elements
}

type entry struct {
	layout TypeLayout
	err    *LayoutError
}

// Engine lays types out for one target and memoizes the results. It is
// safe for concurrent use.
type Engine struct {
	Target Target

	mu   sync.Mutex
	memo map[string]entry
}

// New returns an engine for target.
func New(target Target) *Engine {
	return &Engine{Target: target, memo: make(map[string]entry, 64)}
}

// LayoutOf returns the layout of t.
func (e *Engine) LayoutOf(t *ir.Type) (TypeLayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.layoutOf(t)
	if err != nil {
		return l, err
	}
	return l, nil
}

// SizeOf returns the byte size of t.
func (e *Engine) SizeOf(t *ir.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// FieldOffset returns the byte offset of field idx of struct t.
func (e *Engine) FieldOffset(t *ir.Type, idx int) (int, error) {
	l, err := e.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	if !t.IsStruct() || idx < 0 || idx >= len(l.FieldOffsets) {
		return 0, &LayoutError{Kind: LayoutErrNoField, Type: t.String(), Value: int64(idx)}
	}
	return l.FieldOffsets[idx], nil
}

// key names t uniquely. Named structs print by name only, so their
// bodies are spelled out.
func key(t *ir.Type) string {
	if !t.IsStruct() || t.Name == "" {
		return t.String()
	}
	k := t.Name + "{"
	for _, f := range t.Fields {
		k += key(f) + ","
	}
	return k + "}"
}

func (e *Engine) layoutOf(t *ir.Type) (TypeLayout, *LayoutError) {
	k := key(t)
	if hit, ok := e.memo[k]; ok {
		return hit.layout, hit.err
	}
	l, err := e.compute(t)
	if e.memo == nil {
		e.memo = make(map[string]entry)
	}
	e.memo[k] = entry{layout: l, err: err}
	return l, err
}

func (e *Engine) compute(t *ir.Type) (TypeLayout, *LayoutError) {
	var s Scalar
	switch t.Kind {
	case ir.TypeI1:
		s = e.Target.Bool
	case ir.TypeI64:
		s = e.Target.I64
	case ir.TypePtr:
		s = e.Target.Pointer
	case ir.TypeArray:
		return e.array(t)
	case ir.TypeStruct:
		return e.strct(t)
	default:
		return TypeLayout{Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t.String()}
	}
	return TypeLayout{Size: s.Size, Align: s.Align}, nil
}

func (e *Engine) array(t *ir.Type) (TypeLayout, *LayoutError) {
	if t.Len < 0 {
		return TypeLayout{Align: 1}, &LayoutError{Kind: LayoutErrNegativeLength, Type: t.String(), Value: int64(t.Len)}
	}
	elem, err := e.layoutOf(t.Elem)
	if err != nil {
		return TypeLayout{Align: 1}, err
	}
	stride := alignTo(elem.Size, elem.Align)
	size, convErr := safecast.Conv[int32](uint64(stride) * uint64(t.Len)) //nolint:gosec // both non-negative
	if convErr != nil {
		return TypeLayout{Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: convErr}
	}
	return TypeLayout{Size: int(size), Align: elem.Align, Stride: stride}, nil
}

func (e *Engine) strct(t *ir.Type) (TypeLayout, *LayoutError) {
	l := TypeLayout{Align: 1, FieldOffsets: make([]int, len(t.Fields))}
	off := 0
	for i, f := range t.Fields {
		fl, err := e.layoutOf(f)
		if err != nil {
			return TypeLayout{Align: 1}, err
		}
		off = alignTo(off, fl.Align)
		l.FieldOffsets[i] = off
		off += fl.Size
		l.Align = max(l.Align, fl.Align)
	}
	l.Size = alignTo(off, l.Align)
	return l, nil
}

func alignTo(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
