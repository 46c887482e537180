package types

import "fmt"

// TypeID uniquely identifies a type within an Interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the semantic type kinds the array codegen understands.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindBool
	KindStruct
	KindKnownSizeArray
	KindUnknownSizeArray
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStruct:
		return "struct"
	case KindKnownSizeArray:
		return "ksa"
	case KindUnknownSizeArray:
		return "usa"
	default:
		return "invalid"
	}
}

// Field is a named struct member.
type Field struct {
	Name string
	Type Reference
}

// Type is a compact descriptor for every semantic type.
type Type struct {
	Kind Kind
	Name string

	// Struct-only.
	Fields []Field

	// Array-only.
	Elem   Reference
	Length uint32 // known-size arrays only
}

// IsArray reports whether the descriptor is one of the array kinds.
func (t Type) IsArray() bool {
	return t.Kind == KindKnownSizeArray || t.Kind == KindUnknownSizeArray
}

// IsPrimitive reports whether values of this type are plain scalars.
func (t Type) IsPrimitive() bool {
	return t.Kind == KindInt || t.Kind == KindBool
}

func (t Type) String() string {
	switch t.Kind {
	case KindKnownSizeArray:
		return fmt.Sprintf("[#%d]%s", t.Length, t.Elem)
	case KindUnknownSizeArray:
		return fmt.Sprintf("[]%s", t.Elem)
	case KindStruct:
		return t.Name
	default:
		return t.Kind.String()
	}
}
