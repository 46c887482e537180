package ir

// Assert continues only when cond holds; otherwise the program panics
// with msg. The builder is left in the continuation block.
func (b *Builder) Assert(cond Value, kind PanicKind, msg string) error {
	fail := b.NewBlock("assert.fail")
	ok := b.NewBlock("assert.ok")
	if err := b.CondBr(cond, ok, fail); err != nil {
		return err
	}
	b.SetInsertPoint(fail)
	if err := b.Panic(kind, msg); err != nil {
		return err
	}
	b.SetInsertPoint(ok)
	return nil
}

// MakeLocal allocates a local slot of type t holding init.
func (b *Builder) MakeLocal(name string, t *Type, init Value) (Value, error) {
	slot := b.Alloca(t, name)
	if err := b.Store(init, slot); err != nil {
		return Value{}, err
	}
	return slot, nil
}

// AdjustCounter adds delta to the i64 that ptr points at.
func (b *Builder) AdjustCounter(ptr Value, delta int64) error {
	prev, err := b.Load(ptr, "counter")
	if err != nil {
		return err
	}
	next, err := b.Add(prev, ConstI64(delta), "counter.next")
	if err != nil {
		return err
	}
	return b.Store(next, ptr)
}

// BuildWhile emits `while cond() { body() }`. cond runs in the loop header
// and must return an i1; body may leave the builder in any open block, from
// which control returns to the header. Afterwards the builder sits in the
// exit block.
func (b *Builder) BuildWhile(cond func(*Builder) (Value, error), body func(*Builder) error) error {
	header := b.NewBlock("while.cond")
	loop := b.NewBlock("while.body")
	exit := b.NewBlock("while.end")
	if err := b.Br(header); err != nil {
		return err
	}

	b.SetInsertPoint(header)
	c, err := cond(b)
	if err != nil {
		return err
	}
	if err := b.CondBr(c, loop, exit); err != nil {
		return err
	}

	b.SetInsertPoint(loop)
	if err := body(b); err != nil {
		return err
	}
	if !b.Terminated() {
		if err := b.Br(header); err != nil {
			return err
		}
	}

	b.SetInsertPoint(exit)
	return nil
}
