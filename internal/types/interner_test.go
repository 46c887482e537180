package types

import "testing"

func TestInterner_ArraysAreInterned(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	a, err := in.RegisterKnownSizeArray(b.IntRef, 3)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	again, err := in.RegisterKnownSizeArray(b.IntRef, 3)
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if a != again {
		t.Fatalf("expected identical ids, got %d and %d", a, again)
	}
	other, err := in.RegisterKnownSizeArray(b.IntRef, 4)
	if err != nil {
		t.Fatalf("register other: %v", err)
	}
	if other == a {
		t.Fatalf("different lengths must not share an id")
	}

	usa, err := in.RegisterUnknownSizeArray(b.IntRef)
	if err != nil {
		t.Fatalf("register usa: %v", err)
	}
	elem, known, _, ok := in.ArrayInfo(usa)
	if !ok || known || elem != b.IntRef {
		t.Fatalf("unexpected array info: elem=%v known=%v ok=%v", elem, known, ok)
	}
	if got := in.Label(a); got != "[#3]int" {
		t.Fatalf("label = %q", got)
	}
}

func TestInterner_RejectsUnknownElements(t *testing.T) {
	in := NewInterner()
	bogus := Reference{Ownership: Own, Location: Yonder, Referend: 999}
	if _, err := in.RegisterUnknownSizeArray(bogus); err == nil {
		t.Fatalf("expected error for unknown element type")
	}
	if _, err := in.RegisterKnownSizeArray(in.Builtins().IntRef, -1); err == nil {
		t.Fatalf("expected error for negative length")
	}
}

func TestInterner_Structs(t *testing.T) {
	in := NewInterner()
	id, err := in.RegisterStruct("Box", []Field{{Name: "value", Type: in.Builtins().IntRef}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got, ok := in.StructByName("Box"); !ok || got != id {
		t.Fatalf("StructByName = %d, %v", got, ok)
	}
	if _, err := in.RegisterStruct("Box", nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
