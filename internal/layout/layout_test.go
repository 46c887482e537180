package layout

import (
	"errors"
	"testing"

	"tessera/internal/ir"
)

func TestLayout_ArrayWrapper(t *testing.T) {
	e := New(X86_64LinuxGNU())
	control := ir.StructOf(ir.I64)
	usa := ir.NamedStruct("USA", control, ir.I64, ir.ArrayOf(ir.I1, 0))
	ksa := ir.NamedStruct("KSA", control, ir.ArrayOf(ir.I1, 3))

	l, err := e.LayoutOf(usa)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if want := []int{0, 8, 16}; !equalInts(l.FieldOffsets, want) {
		t.Fatalf("usa offsets = %v, want %v", l.FieldOffsets, want)
	}
	if l.Size != 16 || l.Align != 8 {
		t.Fatalf("usa size/align = %d/%d", l.Size, l.Align)
	}

	l, err = e.LayoutOf(ksa)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Size != 16 || l.FieldOffsets[1] != 8 {
		t.Fatalf("ksa size=%d offsets=%v", l.Size, l.FieldOffsets)
	}

	arr, err := e.LayoutOf(ir.ArrayOf(ir.StructOf(ir.I64, ir.I1), 3))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if arr.Stride != 16 || arr.Size != 48 {
		t.Fatalf("stride=%d size=%d", arr.Stride, arr.Size)
	}
}

func TestLayout_Errors(t *testing.T) {
	e := New(X86_64LinuxGNU())
	var lerr *LayoutError
	if _, err := e.LayoutOf(ir.StructOf(ir.I64, ir.Void)); !errors.As(err, &lerr) || lerr.Kind != LayoutErrUnsized {
		t.Fatalf("expected unsized error, got %v", err)
	}
	if _, err := e.LayoutOf(ir.ArrayOf(ir.I64, -1)); !errors.As(err, &lerr) || lerr.Kind != LayoutErrNegativeLength {
		t.Fatalf("expected negative length error, got %v", err)
	}
	if _, err := e.LayoutOf(ir.ArrayOf(ir.I64, 1<<40)); !errors.As(err, &lerr) || lerr.Kind != LayoutErrLengthConversion {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if _, err := e.FieldOffset(ir.StructOf(ir.I64), 1); !errors.As(err, &lerr) || lerr.Kind != LayoutErrNoField {
		t.Fatalf("expected missing field error, got %v", err)
	}
	if _, err := e.FieldOffset(ir.I64, 0); !errors.As(err, &lerr) || lerr.Kind != LayoutErrNoField {
		t.Fatalf("expected missing field error for a scalar, got %v", err)
	}
	if off, err := e.FieldOffset(ir.StructOf(ir.I1, ir.I64), 1); err != nil || off != 8 {
		t.Fatalf("offset = %d, %v", off, err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
