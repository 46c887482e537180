package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a textual, LLVM-flavoured rendering of the module.
func Dump(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	var sb strings.Builder
	if m.Name != "" {
		fmt.Fprintf(&sb, "; module %s\n\n", m.Name)
	}
	for _, st := range m.Structs {
		fmt.Fprintf(&sb, "%%%s = type %s\n", st.Name, structBody(st))
	}
	if len(m.Structs) > 0 {
		sb.WriteString("\n")
	}
	for i, f := range m.Funcs {
		if i > 0 {
			sb.WriteString("\n")
		}
		dumpFunc(&sb, f)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpFunc renders a single function.
func DumpFunc(f *Func) string {
	var sb strings.Builder
	dumpFunc(&sb, f)
	return sb.String()
}

func dumpFunc(sb *strings.Builder, f *Func) {
	params := make([]string, 0, len(f.Params))
	for i, p := range f.Params {
		params = append(params, fmt.Sprintf("%s %%arg%d", p.Type, i))
	}
	fmt.Fprintf(sb, "define %s @%s(%s) {\n", f.Result, f.Name, strings.Join(params, ", "))
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(sb, "%s.%d:\n", bb.Name, bb.ID)
		for j := range bb.Instrs {
			fmt.Fprintf(sb, "  %s\n", formatInstr(f, &bb.Instrs[j]))
		}
		fmt.Fprintf(sb, "  %s\n", formatTerm(f, &bb.Term))
	}
	sb.WriteString("}\n")
}

func valueRef(f *Func, v Value) string {
	if v.Kind == ValueInstr {
		if name := f.ValueName(v.ID); name != "" {
			return fmt.Sprintf("%%%s.%d", name, v.ID)
		}
	}
	return v.String()
}

func typed(f *Func, v Value) string {
	return v.Type.String() + " " + valueRef(f, v)
}

func formatInstr(f *Func, ins *Instr) string {
	res := ""
	if ins.Result.IsValid() {
		res = valueRef(f, ins.Result) + " = "
	}
	switch ins.Kind {
	case InstrICmp:
		return fmt.Sprintf("%sicmp %s %s, %s", res, ins.ICmp.Pred, typed(f, ins.ICmp.Left), valueRef(f, ins.ICmp.Right))
	case InstrBinary:
		return fmt.Sprintf("%s%s %s, %s", res, ins.Binary.Op, typed(f, ins.Binary.Left), valueRef(f, ins.Binary.Right))
	case InstrStructGEP:
		return fmt.Sprintf("%sgetelementptr inbounds %s, %s, i32 0, i32 %d", res, ins.StructGEP.Base.Type.Pointee(), typed(f, ins.StructGEP.Base), ins.StructGEP.Field)
	case InstrGEP:
		idx := make([]string, 0, len(ins.GEP.Indices))
		for _, v := range ins.GEP.Indices {
			idx = append(idx, typed(f, v))
		}
		return fmt.Sprintf("%sgetelementptr inbounds %s, %s, %s", res, ins.GEP.Base.Type.Pointee(), typed(f, ins.GEP.Base), strings.Join(idx, ", "))
	case InstrLoad:
		return fmt.Sprintf("%sload %s, %s", res, ins.Result.Type, typed(f, ins.Load.Ptr))
	case InstrStore:
		return fmt.Sprintf("store %s, %s", typed(f, ins.Store.Value), typed(f, ins.Store.Ptr))
	case InstrAlloca:
		return fmt.Sprintf("%salloca %s", res, ins.Alloca.Type)
	case InstrPtrToInt:
		return fmt.Sprintf("%sptrtoint %s to i64", res, typed(f, ins.Cast.Value))
	case InstrZExt:
		return fmt.Sprintf("%szext %s to i64", res, typed(f, ins.Cast.Value))
	case InstrBitCast:
		return fmt.Sprintf("%sbitcast %s to %s", res, typed(f, ins.Cast.Value), ins.Result.Type)
	case InstrPanic:
		return fmt.Sprintf("call void @tessera_panic_%s(%q)", ins.Panic.Kind, ins.Panic.Message)
	case InstrFlare:
		args := make([]string, 0, len(ins.Flare.Args))
		for _, a := range ins.Flare.Args {
			args = append(args, typed(f, a))
		}
		if len(args) == 0 {
			return fmt.Sprintf("call void @tessera_flare(%q)", ins.Flare.Message)
		}
		return fmt.Sprintf("call void @tessera_flare(%q, %s)", ins.Flare.Message, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("; unknown instr %d", ins.Kind)
	}
}

func blockLabel(f *Func, id BlockID) string {
	bb := f.Block(id)
	if bb == nil {
		return fmt.Sprintf("%%bb%d", id)
	}
	return fmt.Sprintf("%%%s.%d", bb.Name, bb.ID)
}

func formatTerm(f *Func, t *Terminator) string {
	switch t.Kind {
	case TermBr:
		return "br label " + blockLabel(f, t.Br.Target)
	case TermCondBr:
		return fmt.Sprintf("br %s, label %s, label %s", typed(f, t.CondBr.Cond), blockLabel(f, t.CondBr.Then), blockLabel(f, t.CondBr.Else))
	case TermRet:
		if !t.Ret.HasValue {
			return "ret void"
		}
		return "ret " + typed(f, t.Ret.Value)
	case TermUnreachable:
		return "unreachable"
	default:
		return "; <unterminated>"
	}
}
