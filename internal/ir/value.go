package ir

import "fmt"

// ValueKind distinguishes value sources.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueConst
	ValueNull
	ValueParam
	ValueInstr
)

// Value is an SSA value: a constant, a parameter, or an instruction result.
type Value struct {
	Kind ValueKind
	ID   int // param index or instruction result id
	Type *Type
	Int  int64
}

// ConstI64 materializes a 64-bit integer constant.
func ConstI64(n int64) Value {
	return Value{Kind: ValueConst, Type: I64, Int: n}
}

// ConstBool materializes an i1 constant.
func ConstBool(v bool) Value {
	if v {
		return Value{Kind: ValueConst, Type: I1, Int: 1}
	}
	return Value{Kind: ValueConst, Type: I1}
}

// Null returns the null pointer of type t.
func Null(t *Type) Value {
	return Value{Kind: ValueNull, Type: t}
}

// IsValid reports whether v refers to something.
func (v Value) IsValid() bool {
	return v.Kind != ValueNone
}

// IsConst reports whether v is a compile-time constant.
func (v Value) IsConst() bool {
	return v.Kind == ValueConst || v.Kind == ValueNull
}

func (v Value) String() string {
	switch v.Kind {
	case ValueConst:
		if v.Type.Kind == TypeI1 {
			return boolValue(v.Int != 0)
		}
		return fmt.Sprintf("%d", v.Int)
	case ValueNull:
		return "null"
	case ValueParam:
		return fmt.Sprintf("%%arg%d", v.ID)
	case ValueInstr:
		return fmt.Sprintf("%%%d", v.ID)
	default:
		return "<none>"
	}
}

func boolValue(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
