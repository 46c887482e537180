package ir

import (
	"errors"
	"fmt"
)

// Validate checks module invariants and returns every violation found.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks a single function.
func ValidateFunc(f *Func) error {
	var errs []error

	defined := make(map[int]bool, f.nextValue)
	for i := range f.Blocks {
		for j := range f.Blocks[i].Instrs {
			if res := f.Blocks[i].Instrs[j].Result; res.Kind == ValueInstr {
				defined[res.ID] = true
			}
		}
	}

	checkOperand := func(where string, v Value) {
		switch v.Kind {
		case ValueNone:
			errs = append(errs, fmt.Errorf("%s: missing operand", where))
		case ValueInstr:
			if !defined[v.ID] {
				errs = append(errs, fmt.Errorf("%s: use of undefined value %%%d", where, v.ID))
			}
		case ValueParam:
			if v.ID < 0 || v.ID >= len(f.Params) {
				errs = append(errs, fmt.Errorf("%s: invalid parameter %d", where, v.ID))
			}
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			where := fmt.Sprintf("%s.%d:%d", bb.Name, bb.ID, j)
			for _, op := range ins.Operands() {
				checkOperand(where, op)
			}
			switch ins.Kind {
			case InstrLoad:
				if ins.Load.Ptr.Type.Pointee() == nil {
					errs = append(errs, fmt.Errorf("%s: load through non-pointer %s", where, ins.Load.Ptr.Type))
				}
			case InstrStore:
				if !ins.Store.Ptr.Type.Pointee().Equal(ins.Store.Value.Type) {
					errs = append(errs, fmt.Errorf("%s: store of %s through %s", where, ins.Store.Value.Type, ins.Store.Ptr.Type))
				}
			case InstrAlloca:
				if bb.ID != f.Entry {
					errs = append(errs, fmt.Errorf("%s: alloca outside the entry block", where))
				}
			}
		}

		switch bb.Term.Kind {
		case TermNone:
			errs = append(errs, fmt.Errorf("%s.%d: unterminated block", bb.Name, bb.ID))
		case TermCondBr:
			checkOperand(fmt.Sprintf("%s.%d:term", bb.Name, bb.ID), bb.Term.CondBr.Cond)
		case TermRet:
			if bb.Term.Ret.HasValue {
				checkOperand(fmt.Sprintf("%s.%d:term", bb.Name, bb.ID), bb.Term.Ret.Value)
			}
		}
		for _, succ := range bb.Term.Successors() {
			if f.Block(succ) == nil {
				errs = append(errs, fmt.Errorf("%s.%d: branch to missing block %d", bb.Name, bb.ID, succ))
			}
		}
	}
	return errors.Join(errs...)
}
