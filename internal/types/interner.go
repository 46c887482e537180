package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores the primitive types and their canonical references.
type Builtins struct {
	Int  TypeID
	Bool TypeID

	IntRef  Reference
	BoolRef Reference
}

// Interner provides stable TypeIDs for registered types.
type Interner struct {
	types    []Type
	arrays   map[arrayKey]TypeID
	byName   map[string]TypeID
	builtins Builtins
}

type arrayKey struct {
	kind   Kind
	elem   Reference
	length uint32
}

// NewInterner constructs an interner seeded with the primitives.
func NewInterner() *Interner {
	in := &Interner{
		types:  make([]Type, 1, 16), // reserve 0 as NoTypeID
		byName: make(map[string]TypeID, 8),
	}
	in.builtins.Int = in.add(Type{Kind: KindInt})
	in.builtins.Bool = in.add(Type{Kind: KindBool})
	in.builtins.IntRef = Reference{Ownership: Share, Location: Inline, Referend: in.builtins.Int}
	in.builtins.BoolRef = Reference{Ownership: Share, Location: Inline, Referend: in.builtins.Bool}
	return in
}

// Builtins returns the primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

func (in *Interner) add(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	in.types = append(in.types, t)
	return TypeID(n)
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup returns the descriptor or the zero Type for unknown IDs.
func (in *Interner) MustLookup(id TypeID) Type {
	t, _ := in.Lookup(id)
	return t
}

// RegisterStruct adds a nominal struct type. Names are unique.
func (in *Interner) RegisterStruct(name string, fields []Field) (TypeID, error) {
	if name == "" {
		return NoTypeID, fmt.Errorf("struct name is empty")
	}
	if _, dup := in.byName[name]; dup {
		return NoTypeID, fmt.Errorf("struct %q already registered", name)
	}
	for _, f := range fields {
		if _, ok := in.Lookup(f.Type.Referend); !ok {
			return NoTypeID, fmt.Errorf("struct %q: field %q has unknown type#%d", name, f.Name, f.Type.Referend)
		}
	}
	id := in.add(Type{Kind: KindStruct, Name: name, Fields: append([]Field(nil), fields...)})
	in.byName[name] = id
	return id, nil
}

// StructByName resolves a registered struct.
func (in *Interner) StructByName(name string) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

// RegisterKnownSizeArray interns a fixed-size array of elem.
func (in *Interner) RegisterKnownSizeArray(elem Reference, length int) (TypeID, error) {
	n, err := safecast.Conv[uint32](length)
	if err != nil {
		return NoTypeID, fmt.Errorf("array length %d: %w", length, err)
	}
	return in.registerArray(arrayKey{kind: KindKnownSizeArray, elem: elem, length: n})
}

// RegisterUnknownSizeArray interns a variable-length array of elem.
func (in *Interner) RegisterUnknownSizeArray(elem Reference) (TypeID, error) {
	return in.registerArray(arrayKey{kind: KindUnknownSizeArray, elem: elem})
}

func (in *Interner) registerArray(key arrayKey) (TypeID, error) {
	if _, ok := in.Lookup(key.elem.Referend); !ok {
		return NoTypeID, fmt.Errorf("array element has unknown type#%d", key.elem.Referend)
	}
	if in.arrays == nil {
		in.arrays = make(map[arrayKey]TypeID, 8)
	}
	if id, ok := in.arrays[key]; ok {
		return id, nil
	}
	id := in.add(Type{Kind: key.kind, Elem: key.elem, Length: key.length})
	in.arrays[key] = id
	return id, nil
}

// ArrayInfo returns the element reference and kind of an array type.
func (in *Interner) ArrayInfo(id TypeID) (elem Reference, known bool, length uint32, ok bool) {
	t, found := in.Lookup(id)
	if !found || !t.IsArray() {
		return Reference{}, false, 0, false
	}
	return t.Elem, t.Kind == KindKnownSizeArray, t.Length, true
}

// Label renders a type for diagnostics.
func (in *Interner) Label(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return fmt.Sprintf("type#%d", id)
	}
	switch t.Kind {
	case KindKnownSizeArray:
		return fmt.Sprintf("[#%d]%s", t.Length, in.Label(t.Elem.Referend))
	case KindUnknownSizeArray:
		return fmt.Sprintf("[]%s", in.Label(t.Elem.Referend))
	default:
		return t.String()
	}
}
