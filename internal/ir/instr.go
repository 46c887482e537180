package ir

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrICmp compares two integers or pointers.
	InstrICmp InstrKind = iota
	// InstrBinary is an integer arithmetic or logic operation.
	InstrBinary
	// InstrStructGEP computes the address of a struct field.
	InstrStructGEP
	// InstrGEP computes an indexed address.
	InstrGEP
	// InstrLoad reads through a pointer.
	InstrLoad
	// InstrStore writes through a pointer.
	InstrStore
	// InstrAlloca reserves a function-local slot.
	InstrAlloca
	// InstrPtrToInt reinterprets a pointer as i64.
	InstrPtrToInt
	// InstrPanic aborts the program.
	InstrPanic
	// InstrFlare emits a diagnostic trace line at runtime.
	InstrFlare
	// InstrBitCast reinterprets a pointer as another pointer type.
	InstrBitCast
	// InstrZExt widens an i1 to i64.
	InstrZExt
)

// Predicate is an integer comparison predicate.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	PredULT
	PredUGE
)

func (p Predicate) String() string {
	switch p {
	case PredEQ:
		return "eq"
	case PredNE:
		return "ne"
	case PredSLT:
		return "slt"
	case PredSLE:
		return "sle"
	case PredSGT:
		return "sgt"
	case PredSGE:
		return "sge"
	case PredULT:
		return "ult"
	case PredUGE:
		return "uge"
	default:
		return "?"
	}
}

// BinaryOp enumerates arithmetic and logic operations.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpAnd
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpAnd:
		return "and"
	default:
		return "?"
	}
}

// PanicKind classifies a fatal assertion.
type PanicKind uint8

const (
	PanicAssert PanicKind = iota
	PanicBounds
	PanicInvalidRef
	PanicDangling
)

func (k PanicKind) String() string {
	switch k {
	case PanicBounds:
		return "bounds"
	case PanicInvalidRef:
		return "invalid_ref"
	case PanicDangling:
		return "dangling"
	default:
		return "assert"
	}
}

// Instr is one instruction. Only the payload matching Kind is meaningful.
type Instr struct {
	Kind   InstrKind
	Result Value
	Name   string

	ICmp      ICmpInstr
	Binary    BinaryInstr
	StructGEP StructGEPInstr
	GEP       GEPInstr
	Load      LoadInstr
	Store     StoreInstr
	Alloca    AllocaInstr
	Cast      CastInstr
	Panic     PanicInstr
	Flare     FlareInstr
}

// ICmpInstr represents a comparison.
type ICmpInstr struct {
	Pred        Predicate
	Left, Right Value
}

// BinaryInstr represents an arithmetic or logic operation.
type BinaryInstr struct {
	Op          BinaryOp
	Left, Right Value
}

// StructGEPInstr addresses field Field of the struct Base points at.
type StructGEPInstr struct {
	Base  Value
	Field int
}

// GEPInstr addresses Base[Indices[0]][Indices[1]]...
type GEPInstr struct {
	Base    Value
	Indices []Value
}

// LoadInstr represents a load.
type LoadInstr struct {
	Ptr Value
}

// StoreInstr represents a store.
type StoreInstr struct {
	Value Value
	Ptr   Value
}

// AllocaInstr reserves a slot of Type.
type AllocaInstr struct {
	Type *Type
}

// CastInstr represents a conversion.
type CastInstr struct {
	Value Value
}

// PanicInstr terminates the program with a message.
type PanicInstr struct {
	Kind    PanicKind
	Message string
}

// FlareInstr prints Message followed by Args.
type FlareInstr struct {
	Message string
	Args    []Value
}

// Operands returns the values read by the instruction.
func (ins *Instr) Operands() []Value {
	switch ins.Kind {
	case InstrICmp:
		return []Value{ins.ICmp.Left, ins.ICmp.Right}
	case InstrBinary:
		return []Value{ins.Binary.Left, ins.Binary.Right}
	case InstrStructGEP:
		return []Value{ins.StructGEP.Base}
	case InstrGEP:
		out := make([]Value, 0, 1+len(ins.GEP.Indices))
		out = append(out, ins.GEP.Base)
		return append(out, ins.GEP.Indices...)
	case InstrLoad:
		return []Value{ins.Load.Ptr}
	case InstrStore:
		return []Value{ins.Store.Value, ins.Store.Ptr}
	case InstrPtrToInt, InstrBitCast, InstrZExt:
		return []Value{ins.Cast.Value}
	case InstrFlare:
		return ins.Flare.Args
	default:
		return nil
	}
}
