package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the low-level value types.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeI1
	TypeI64
	TypePtr
	TypeArray
	TypeStruct
)

// Type is a low-level type. Pointers are typed so that structural
// self-checks can inspect what an address points at.
type Type struct {
	Kind   TypeKind
	Elem   *Type // pointee or array element
	Len    int   // array length
	Name   string
	Fields []*Type
}

var (
	Void = &Type{Kind: TypeVoid}
	I1   = &Type{Kind: TypeI1}
	I64  = &Type{Kind: TypeI64}
)

// PtrTo returns the pointer type to t.
func PtrTo(t *Type) *Type {
	return &Type{Kind: TypePtr, Elem: t}
}

// ArrayOf returns [n x t].
func ArrayOf(t *Type, n int) *Type {
	return &Type{Kind: TypeArray, Elem: t, Len: n}
}

// StructOf returns an anonymous struct type.
func StructOf(fields ...*Type) *Type {
	return &Type{Kind: TypeStruct, Fields: fields}
}

// NamedStruct returns a nominal struct type. Named structs compare by name.
func NamedStruct(name string, fields ...*Type) *Type {
	return &Type{Kind: TypeStruct, Name: name, Fields: fields}
}

func (t *Type) IsPtr() bool    { return t != nil && t.Kind == TypePtr }
func (t *Type) IsStruct() bool { return t != nil && t.Kind == TypeStruct }
func (t *Type) IsArray() bool  { return t != nil && t.Kind == TypeArray }
func (t *Type) IsInt() bool    { return t != nil && (t.Kind == TypeI1 || t.Kind == TypeI64) }

// Pointee returns the element type of a pointer, or nil.
func (t *Type) Pointee() *Type {
	if !t.IsPtr() {
		return nil
	}
	return t.Elem
}

// Equal reports structural equality; named structs are equal by name.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypePtr:
		return t.Elem.Equal(o.Elem)
	case TypeArray:
		return t.Len == o.Len && t.Elem.Equal(o.Elem)
	case TypeStruct:
		if t.Name != "" || o.Name != "" {
			return t.Name == o.Name
		}
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(o.Fields[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeI1:
		return "i1"
	case TypeI64:
		return "i64"
	case TypePtr:
		return t.Elem.String() + "*"
	case TypeArray:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case TypeStruct:
		if t.Name != "" {
			return "%" + t.Name
		}
		return structBody(t)
	default:
		return fmt.Sprintf("type(%d)", t.Kind)
	}
}

func structBody(t *Type) string {
	if len(t.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		parts = append(parts, f.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
