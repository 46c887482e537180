package vm

import (
	"fmt"
	"io"
	"strings"

	"tessera/internal/ir"
)

func (vm *VM) value(fr *frame, v ir.Value) (int64, *VMError) {
	switch v.Kind {
	case ir.ValueConst:
		return v.Int, nil
	case ir.ValueNull:
		return 0, nil
	case ir.ValueParam:
		if v.ID < 0 || v.ID >= len(fr.args) {
			return 0, vm.makeError(PanicUseBeforeInit, fmt.Sprintf("parameter %d out of range", v.ID))
		}
		return fr.args[v.ID], nil
	case ir.ValueInstr:
		r, ok := fr.regs[v.ID]
		if !ok {
			return 0, vm.makeError(PanicUseBeforeInit, fmt.Sprintf("value %%%d used before definition", v.ID))
		}
		return r, nil
	default:
		return 0, vm.makeError(PanicUseBeforeInit, "empty value")
	}
}

// scalarWidth is the number of bytes a load or store of t touches.
func scalarWidth(t *ir.Type) (int, bool) {
	switch {
	case t.Equal(ir.I1):
		return 1, true
	case t.Equal(ir.I64), t.IsPtr():
		return 8, true
	default:
		return 0, false
	}
}

func (vm *VM) exec(fr *frame, ins *ir.Instr) *VMError {
	switch ins.Kind {
	case ir.InstrICmp:
		l, vmErr := vm.value(fr, ins.ICmp.Left)
		if vmErr != nil {
			return vmErr
		}
		r, vmErr := vm.value(fr, ins.ICmp.Right)
		if vmErr != nil {
			return vmErr
		}
		fr.regs[ins.Result.ID] = boolInt(compare(ins.ICmp.Pred, l, r))

	case ir.InstrBinary:
		l, vmErr := vm.value(fr, ins.Binary.Left)
		if vmErr != nil {
			return vmErr
		}
		r, vmErr := vm.value(fr, ins.Binary.Right)
		if vmErr != nil {
			return vmErr
		}
		var res int64
		switch ins.Binary.Op {
		case ir.OpAdd:
			res = l + r
		case ir.OpSub:
			res = l - r
		case ir.OpAnd:
			res = l & r
		default:
			return vm.unimplemented(ins.Binary.Op.String())
		}
		if ins.Result.Type.Equal(ir.I1) {
			res &= 1
		}
		fr.regs[ins.Result.ID] = res

	case ir.InstrStructGEP:
		base, vmErr := vm.value(fr, ins.StructGEP.Base)
		if vmErr != nil {
			return vmErr
		}
		off, err := vm.layout.FieldOffset(ins.StructGEP.Base.Type.Pointee(), ins.StructGEP.Field)
		if err != nil {
			return vm.unimplemented(err.Error())
		}
		fr.regs[ins.Result.ID] = int64(offsetPtr(uint64(base), int64(off))) //nolint:gosec // pointer encoding

	case ir.InstrGEP:
		p, vmErr := vm.gep(fr, ins)
		if vmErr != nil {
			return vmErr
		}
		fr.regs[ins.Result.ID] = int64(p) //nolint:gosec // pointer encoding

	case ir.InstrLoad:
		width, ok := scalarWidth(ins.Result.Type)
		if !ok {
			return vm.unimplemented(fmt.Sprintf("load of %s", ins.Result.Type))
		}
		p, vmErr := vm.value(fr, ins.Load.Ptr)
		if vmErr != nil {
			return vmErr
		}
		v, vmErr := vm.readScalar(uint64(p), width) //nolint:gosec // pointer encoding
		if vmErr != nil {
			return vmErr
		}
		fr.regs[ins.Result.ID] = v

	case ir.InstrStore:
		width, ok := scalarWidth(ins.Store.Value.Type)
		if !ok {
			return vm.unimplemented(fmt.Sprintf("store of %s", ins.Store.Value.Type))
		}
		v, vmErr := vm.value(fr, ins.Store.Value)
		if vmErr != nil {
			return vmErr
		}
		p, vmErr := vm.value(fr, ins.Store.Ptr)
		if vmErr != nil {
			return vmErr
		}
		return vm.writeScalar(uint64(p), width, v) //nolint:gosec // pointer encoding

	case ir.InstrAlloca:
		l, err := vm.layout.LayoutOf(ins.Alloca.Type)
		if err != nil {
			return vm.unimplemented(err.Error())
		}
		p, vmErr := vm.rawAlloc(l.Size, l.Align)
		if vmErr != nil {
			return vmErr
		}
		fr.allocas = append(fr.allocas, p)
		fr.regs[ins.Result.ID] = int64(p) //nolint:gosec // pointer encoding

	case ir.InstrPtrToInt, ir.InstrBitCast, ir.InstrZExt:
		p, vmErr := vm.value(fr, ins.Cast.Value)
		if vmErr != nil {
			return vmErr
		}
		fr.regs[ins.Result.ID] = p

	case ir.InstrPanic:
		return vm.makeError(codeFor(ins.Panic.Kind), ins.Panic.Message)

	case ir.InstrFlare:
		return vm.flare(fr, &ins.Flare)

	default:
		return vm.unimplemented(fmt.Sprintf("instruction kind %d", ins.Kind))
	}
	return nil
}

// gep applies the first index in units of the pointee and later indices
// in units of the enclosing array's stride.
func (vm *VM) gep(fr *frame, ins *ir.Instr) (uint64, *VMError) {
	base, vmErr := vm.value(fr, ins.GEP.Base)
	if vmErr != nil {
		return 0, vmErr
	}
	cur := ins.GEP.Base.Type.Pointee()
	var delta int64
	for i, idxVal := range ins.GEP.Indices {
		idx, vmErr := vm.value(fr, idxVal)
		if vmErr != nil {
			return 0, vmErr
		}
		if i == 0 {
			size, err := vm.layout.SizeOf(cur)
			if err != nil {
				return 0, vm.unimplemented(err.Error())
			}
			delta += idx * int64(size)
			continue
		}
		l, err := vm.layout.LayoutOf(cur)
		if err != nil {
			return 0, vm.unimplemented(err.Error())
		}
		delta += idx * int64(l.Stride)
		cur = cur.Elem
	}
	return offsetPtr(uint64(base), delta), nil //nolint:gosec // pointer encoding
}

func (vm *VM) flare(fr *frame, fl *ir.FlareInstr) *VMError {
	if vm.opts.Trace == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("flare: ")
	sb.WriteString(fl.Message)
	for i, a := range fl.Args {
		v, vmErr := vm.value(fr, a)
		if vmErr != nil {
			return vmErr
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%#x", uint64(v)) //nolint:gosec // printed as an address
	}
	sb.WriteByte('\n')
	_, _ = io.WriteString(vm.opts.Trace, sb.String()) //nolint:errcheck // diagnostics only
	return nil
}

func compare(p ir.Predicate, l, r int64) bool {
	switch p {
	case ir.PredEQ:
		return l == r
	case ir.PredNE:
		return l != r
	case ir.PredSLT:
		return l < r
	case ir.PredSLE:
		return l <= r
	case ir.PredSGT:
		return l > r
	case ir.PredSGE:
		return l >= r
	case ir.PredULT:
		return uint64(l) < uint64(r) //nolint:gosec // unsigned comparison
	case ir.PredUGE:
		return uint64(l) >= uint64(r) //nolint:gosec // unsigned comparison
	default:
		return false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
