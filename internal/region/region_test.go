package region

import (
	"errors"
	"strings"
	"testing"

	"tessera/internal/ir"
	"tessera/internal/types"
)

func newTestRegistry(t *testing.T, def ID) (*Registry, types.Reference) {
	t.Helper()
	in := types.NewInterner()
	arr, err := in.RegisterUnknownSizeArray(in.Builtins().IntRef)
	if err != nil {
		t.Fatalf("register array: %v", err)
	}
	reg, err := NewRegistry(in, def)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg, types.Reference{Ownership: types.Borrow, Location: types.Yonder, Referend: arr}
}

func TestParseID(t *testing.T) {
	cases := map[string]ID{"unsafe": Unsafe, "Assist": Assist, "RESILIENT": Resilient}
	for in, want := range cases {
		got, err := ParseID(in)
		if err != nil || got != want {
			t.Fatalf("ParseID(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseID("naive"); err == nil {
		t.Fatalf("expected error for unknown region")
	}
}

func TestWrapperLayout(t *testing.T) {
	reg, arrRef := newTestRegistry(t, Unsafe)
	w, err := reg.WrapperType(arrRef.Referend)
	if err != nil {
		t.Fatalf("wrapper: %v", err)
	}
	if len(w.Fields) != 3 {
		t.Fatalf("unknown-size wrapper has %d fields, want 3", len(w.Fields))
	}
	if !w.Fields[ControlBlockField].Equal(reg.Region(Unsafe).ControlBlock()) {
		t.Fatalf("field 0 is %s, want the control block", w.Fields[ControlBlockField])
	}
	if !w.Fields[UnknownSizeLengthField].Equal(ir.I64) {
		t.Fatalf("length field is %s, want i64", w.Fields[UnknownSizeLengthField])
	}
	if !w.Fields[UnknownSizeContentsField].IsArray() {
		t.Fatalf("contents field is %s, want an array", w.Fields[UnknownSizeContentsField])
	}
	again, _ := reg.WrapperType(arrRef.Referend)
	if again != w {
		t.Fatalf("wrapper types are not cached")
	}
	got, err := reg.TranslateType(arrRef)
	if err != nil || !got.Equal(ir.PtrTo(w)) {
		t.Fatalf("TranslateType = %v, %v; want pointer to wrapper", got, err)
	}
}

func TestAssignAfterTranslation(t *testing.T) {
	reg, arrRef := newTestRegistry(t, Unsafe)
	if err := reg.Assign(arrRef.Referend, Resilient); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if reg.RegionFor(arrRef).ID() != Resilient {
		t.Fatalf("override ignored")
	}
	if _, err := reg.WrapperType(arrRef.Referend); err != nil {
		t.Fatalf("wrapper: %v", err)
	}
	if err := reg.Assign(arrRef.Referend, Unsafe); err == nil {
		t.Fatalf("expected error moving a translated type")
	}
}

func TestStructuralMismatch(t *testing.T) {
	reg, arrRef := newTestRegistry(t, Unsafe)
	f := ir.NewFunc("f", ir.Void, ir.Param{Name: "n", Type: ir.I64})
	b := ir.NewBuilder(f)
	r := reg.Region(Unsafe)

	// An i64 wrapped as an array reference.
	bad := r.Wrap(arrRef, b.Param(0))
	_, err := r.CheckValidReference(Here(), b, arrRef, bad)
	var ce *CheckError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CheckError, got %v", err)
	}
	if !strings.Contains(ce.Error(), "region_test.go") {
		t.Fatalf("error does not carry the call site: %v", ce)
	}

	intRef := reg.Types().Builtins().IntRef
	ok := r.Wrap(intRef, b.Param(0))
	if _, err := r.CheckValidReference(Here(), b, arrRef, ok); err == nil {
		t.Fatalf("expected declared-type mismatch")
	}
	if raw, err := r.CheckValidReference(Here(), b, intRef, ok); err != nil || raw != b.Param(0) {
		t.Fatalf("valid int ref rejected: %v", err)
	}
	if _, err := reg.Region(Assist).CheckValidReference(Here(), b, intRef, ok); err == nil {
		t.Fatalf("expected region mismatch")
	}
}

func TestRuntimeChecksPerRegion(t *testing.T) {
	cases := []struct {
		region ID
		blocks int
		panics []ir.PanicKind
	}{
		{Unsafe, 1, nil},
		{Assist, 3, []ir.PanicKind{ir.PanicInvalidRef}},
		{Resilient, 5, []ir.PanicKind{ir.PanicInvalidRef, ir.PanicDangling}},
	}
	for _, tc := range cases {
		t.Run(tc.region.String(), func(t *testing.T) {
			reg, arrRef := newTestRegistry(t, tc.region)
			ptrT, err := reg.TranslateType(arrRef)
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			f := ir.NewFunc("f", ir.Void, ir.Param{Name: "arr", Type: ptrT})
			b := ir.NewBuilder(f)
			r := reg.RegionFor(arrRef)
			if _, err := r.CheckValidReference(Here(), b, arrRef, r.Wrap(arrRef, b.Param(0))); err != nil {
				t.Fatalf("check: %v", err)
			}
			if len(f.Blocks) != tc.blocks {
				t.Fatalf("got %d blocks, want %d:\n%s", len(f.Blocks), tc.blocks, ir.DumpFunc(f))
			}
			var got []ir.PanicKind
			for _, bb := range f.Blocks {
				for _, ins := range bb.Instrs {
					if ins.Kind == ir.InstrPanic {
						got = append(got, ins.Panic.Kind)
					}
				}
			}
			if len(got) != len(tc.panics) {
				t.Fatalf("got panics %v, want %v", got, tc.panics)
			}
			for i := range got {
				if got[i] != tc.panics[i] {
					t.Fatalf("panic %d = %v, want %v", i, got[i], tc.panics[i])
				}
			}
		})
	}
}
