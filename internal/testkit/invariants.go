package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tessera/internal/ir"
)

// CheckIndexGuarded runs the element-access invariants on an emitted function:
// 1) every element address (a gep with an element index) uses an index that
//    the function compares both against zero (sge) and against a size (slt)
// 2) a bounds panic exists whenever any element address is computed
func CheckIndexGuarded(f *ir.Func) error {
	if f == nil {
		return fmt.Errorf("nil function")
	}
	lower := make(map[ir.Value]bool)
	upper := make(map[ir.Value]bool)
	hasBoundsPanic := false
	var geps []*ir.Instr
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			ins := &bb.Instrs[ii]
			switch ins.Kind {
			case ir.InstrICmp:
				switch ins.ICmp.Pred {
				case ir.PredSGE:
					if isZero(ins.ICmp.Right) {
						lower[ins.ICmp.Left] = true
					}
				case ir.PredSLT:
					upper[ins.ICmp.Left] = true
				}
			case ir.InstrPanic:
				if ins.Panic.Kind == ir.PanicBounds {
					hasBoundsPanic = true
				}
			case ir.InstrGEP:
				if len(ins.GEP.Indices) >= 2 {
					geps = append(geps, ins)
				}
			}
		}
	}
	for _, g := range geps {
		idx := g.GEP.Indices[len(g.GEP.Indices)-1]
		if !lower[idx] || !upper[idx] {
			return fmt.Errorf("%s: element index %s is not bounds-checked", f.Name, idx)
		}
	}
	if len(geps) > 0 && !hasBoundsPanic {
		return fmt.Errorf("%s: %d element accesses but no bounds assertion", f.Name, len(geps))
	}
	return nil
}

func isZero(v ir.Value) bool {
	return v.Kind == ir.ValueConst && v.Int == 0
}

// CountInstrs returns how many instructions of kind f contains.
func CountInstrs(f *ir.Func, kind ir.InstrKind) int {
	n := 0
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			if f.Blocks[bi].Instrs[ii].Kind == kind {
				n++
			}
		}
	}
	return n
}

// OutSlots converts a result count into the byte size of an i64 buffer.
func OutSlots(n int) (int, error) {
	size, err := safecast.Conv[int32](n * 8)
	if err != nil {
		return 0, fmt.Errorf("out buffer overflow: %w", err)
	}
	return int(size), nil
}
