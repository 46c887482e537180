package ir

// TermKind enumerates block terminators.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermBr
	TermCondBr
	TermRet
	TermUnreachable
)

// Terminator ends a block.
type Terminator struct {
	Kind TermKind

	Br     BrTerm
	CondBr CondBrTerm
	Ret    RetTerm
}

// BrTerm is an unconditional branch.
type BrTerm struct {
	Target BlockID
}

// CondBrTerm branches on an i1.
type CondBrTerm struct {
	Cond Value
	Then BlockID
	Else BlockID
}

// RetTerm returns from the function.
type RetTerm struct {
	HasValue bool
	Value    Value
}

// Successors lists the blocks control may transfer to.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermBr:
		return []BlockID{t.Br.Target}
	case TermCondBr:
		return []BlockID{t.CondBr.Then, t.CondBr.Else}
	default:
		return nil
	}
}
