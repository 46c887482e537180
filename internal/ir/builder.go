package ir

// Builder appends instructions at an insertion point inside one function.
type Builder struct {
	f   *Func
	cur BlockID
}

// NewBuilder returns a builder positioned at the end of f's entry block.
func NewBuilder(f *Func) *Builder {
	return &Builder{f: f, cur: f.Entry}
}

// Func returns the function being built.
func (b *Builder) Func() *Func { return b.f }

// Block returns the current insertion block.
func (b *Builder) Block() BlockID { return b.cur }

// NewBlock creates an empty block without moving the insertion point.
func (b *Builder) NewBlock(name string) BlockID {
	return b.f.addBlock(name)
}

// SetInsertPoint moves the insertion point to the end of block id.
func (b *Builder) SetInsertPoint(id BlockID) {
	b.cur = id
}

// Terminated reports whether the current block is closed.
func (b *Builder) Terminated() bool {
	return b.f.Block(b.cur).Terminated()
}

// Param returns the value of parameter i.
func (b *Builder) Param(i int) Value {
	return b.f.Param(i)
}

func (b *Builder) append(op string, ins Instr) error {
	bb := b.f.Block(b.cur)
	if bb == nil {
		return errorf(op, "no insertion block")
	}
	if bb.Terminated() {
		return errorf(op, "block %s is already terminated", bb.Name)
	}
	bb.Instrs = append(bb.Instrs, ins)
	return nil
}

// ICmp compares l and r, producing an i1.
func (b *Builder) ICmp(pred Predicate, l, r Value, name string) (Value, error) {
	if !l.Type.Equal(r.Type) {
		return Value{}, errorf("icmp", "operand types differ: %s vs %s", l.Type, r.Type)
	}
	if !l.Type.IsInt() && !l.Type.IsPtr() {
		return Value{}, errorf("icmp", "cannot compare %s", l.Type)
	}
	res := b.f.newValue(I1, name)
	err := b.append("icmp", Instr{Kind: InstrICmp, Result: res, Name: name, ICmp: ICmpInstr{Pred: pred, Left: l, Right: r}})
	return res, err
}

func (b *Builder) binary(op BinaryOp, l, r Value, name string) (Value, error) {
	if !l.Type.Equal(r.Type) || !l.Type.IsInt() {
		return Value{}, errorf(op.String(), "operands must be the same integer type: %s vs %s", l.Type, r.Type)
	}
	res := b.f.newValue(l.Type, name)
	err := b.append(op.String(), Instr{Kind: InstrBinary, Result: res, Name: name, Binary: BinaryInstr{Op: op, Left: l, Right: r}})
	return res, err
}

// And is the bitwise (logical for i1) conjunction.
func (b *Builder) And(l, r Value, name string) (Value, error) {
	return b.binary(OpAnd, l, r, name)
}

// Add is wrapping integer addition.
func (b *Builder) Add(l, r Value, name string) (Value, error) {
	return b.binary(OpAdd, l, r, name)
}

// Sub is wrapping integer subtraction.
func (b *Builder) Sub(l, r Value, name string) (Value, error) {
	return b.binary(OpSub, l, r, name)
}

// StructGEP returns the address of field idx of the struct ptr points at.
func (b *Builder) StructGEP(ptr Value, idx int, name string) (Value, error) {
	st := ptr.Type.Pointee()
	if !st.IsStruct() {
		return Value{}, errorf("structgep", "base must point at a struct, got %s", ptr.Type)
	}
	if idx < 0 || idx >= len(st.Fields) {
		return Value{}, errorf("structgep", "field %d out of range for %s", idx, st)
	}
	res := b.f.newValue(PtrTo(st.Fields[idx]), name)
	err := b.append("structgep", Instr{Kind: InstrStructGEP, Result: res, Name: name, StructGEP: StructGEPInstr{Base: ptr, Field: idx}})
	return res, err
}

// GEP returns the address ptr[indices[0]][indices[1]]... The first index
// steps over whole pointees; later ones descend into arrays.
func (b *Builder) GEP(ptr Value, indices []Value, name string) (Value, error) {
	cur := ptr.Type.Pointee()
	if cur == nil {
		return Value{}, errorf("gep", "base must be a pointer, got %s", ptr.Type)
	}
	if len(indices) == 0 {
		return Value{}, errorf("gep", "no indices")
	}
	for i, idx := range indices {
		if !idx.Type.Equal(I64) {
			return Value{}, errorf("gep", "index %d must be i64, got %s", i, idx.Type)
		}
		if i == 0 {
			continue
		}
		if !cur.IsArray() {
			return Value{}, errorf("gep", "index %d descends into non-array %s", i, cur)
		}
		cur = cur.Elem
	}
	res := b.f.newValue(PtrTo(cur), name)
	err := b.append("gep", Instr{Kind: InstrGEP, Result: res, Name: name, GEP: GEPInstr{Base: ptr, Indices: append([]Value(nil), indices...)}})
	return res, err
}

// Load reads the pointee of ptr.
func (b *Builder) Load(ptr Value, name string) (Value, error) {
	t := ptr.Type.Pointee()
	if t == nil {
		return Value{}, errorf("load", "operand must be a pointer, got %s", ptr.Type)
	}
	res := b.f.newValue(t, name)
	err := b.append("load", Instr{Kind: InstrLoad, Result: res, Name: name, Load: LoadInstr{Ptr: ptr}})
	return res, err
}

// Store writes val through ptr.
func (b *Builder) Store(val, ptr Value) error {
	t := ptr.Type.Pointee()
	if t == nil {
		return errorf("store", "destination must be a pointer, got %s", ptr.Type)
	}
	if !t.Equal(val.Type) {
		return errorf("store", "cannot store %s through %s", val.Type, ptr.Type)
	}
	return b.append("store", Instr{Kind: InstrStore, Store: StoreInstr{Value: val, Ptr: ptr}})
}

// Alloca reserves a slot in the entry block, ahead of any other code,
// and returns its address.
func (b *Builder) Alloca(t *Type, name string) Value {
	res := b.f.newValue(PtrTo(t), name)
	entry := b.f.Block(b.f.Entry)
	ins := Instr{Kind: InstrAlloca, Result: res, Name: name, Alloca: AllocaInstr{Type: t}}
	at := b.f.allocas
	entry.Instrs = append(entry.Instrs, Instr{})
	copy(entry.Instrs[at+1:], entry.Instrs[at:])
	entry.Instrs[at] = ins
	b.f.allocas++
	return res
}

// PtrToInt converts a pointer to i64.
func (b *Builder) PtrToInt(ptr Value, name string) (Value, error) {
	if !ptr.Type.IsPtr() {
		return Value{}, errorf("ptrtoint", "operand must be a pointer, got %s", ptr.Type)
	}
	res := b.f.newValue(I64, name)
	err := b.append("ptrtoint", Instr{Kind: InstrPtrToInt, Result: res, Name: name, Cast: CastInstr{Value: ptr}})
	return res, err
}

// ZExt widens an i1 to i64.
func (b *Builder) ZExt(v Value, name string) (Value, error) {
	if !v.Type.Equal(I1) {
		return Value{}, errorf("zext", "operand must be i1, got %s", v.Type)
	}
	res := b.f.newValue(I64, name)
	err := b.append("zext", Instr{Kind: InstrZExt, Result: res, Name: name, Cast: CastInstr{Value: v}})
	return res, err
}

// BitCast views ptr as a pointer of type to.
func (b *Builder) BitCast(ptr Value, to *Type, name string) (Value, error) {
	if !ptr.Type.IsPtr() || !to.IsPtr() {
		return Value{}, errorf("bitcast", "only pointer casts are supported, got %s to %s", ptr.Type, to)
	}
	res := b.f.newValue(to, name)
	err := b.append("bitcast", Instr{Kind: InstrBitCast, Result: res, Name: name, Cast: CastInstr{Value: ptr}})
	return res, err
}

// Flare emits a runtime diagnostic line.
func (b *Builder) Flare(msg string, args ...Value) error {
	return b.append("flare", Instr{Kind: InstrFlare, Flare: FlareInstr{Message: msg, Args: append([]Value(nil), args...)}})
}

// Panic aborts the program and closes the block.
func (b *Builder) Panic(kind PanicKind, msg string) error {
	if err := b.append("panic", Instr{Kind: InstrPanic, Panic: PanicInstr{Kind: kind, Message: msg}}); err != nil {
		return err
	}
	return b.terminate("unreachable", Terminator{Kind: TermUnreachable})
}

func (b *Builder) terminate(op string, t Terminator) error {
	bb := b.f.Block(b.cur)
	if bb == nil {
		return errorf(op, "no insertion block")
	}
	if bb.Terminated() {
		return errorf(op, "block %s is already terminated", bb.Name)
	}
	bb.Term = t
	return nil
}

// Br jumps to target.
func (b *Builder) Br(target BlockID) error {
	return b.terminate("br", Terminator{Kind: TermBr, Br: BrTerm{Target: target}})
}

// CondBr branches on an i1.
func (b *Builder) CondBr(cond Value, then, els BlockID) error {
	if !cond.Type.Equal(I1) {
		return errorf("condbr", "condition must be i1, got %s", cond.Type)
	}
	return b.terminate("condbr", Terminator{Kind: TermCondBr, CondBr: CondBrTerm{Cond: cond, Then: then, Else: els}})
}

// Ret returns v, which must match the function result type.
func (b *Builder) Ret(v Value) error {
	if !v.Type.Equal(b.f.Result) {
		return errorf("ret", "returning %s from function of %s", v.Type, b.f.Result)
	}
	return b.terminate("ret", Terminator{Kind: TermRet, Ret: RetTerm{HasValue: true, Value: v}})
}

// RetVoid returns from a void function.
func (b *Builder) RetVoid() error {
	if !b.f.Result.Equal(Void) {
		return errorf("ret", "missing value for function of %s", b.f.Result)
	}
	return b.terminate("ret", Terminator{Kind: TermRet})
}
