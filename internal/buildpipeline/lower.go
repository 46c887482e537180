package buildpipeline

import (
	"fmt"

	"tessera/internal/codegen"
	"tessera/internal/config"
	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/script"
	"tessera/internal/trace"
	"tessera/internal/types"
)

// EntryName is the function every lowered script exports.
const EntryName = "main"

// Program is a lowered script: main(out) writes the result of op k into
// slot k of out.
type Program struct {
	Module *ir.Module
	Ops    []script.Op
	Region region.ID
}

// Slots returns the number of result slots main expects.
func (p *Program) Slots() int { return len(p.Ops) }

// OutType is the type of main's only parameter for n ops.
func OutType(n int) *ir.Type {
	fields := make([]*ir.Type, n)
	for i := range fields {
		fields[i] = ir.I64
	}
	return ir.PtrTo(ir.StructOf(fields...))
}

// Lower translates s into a module under cfg, without tracing.
func Lower(s *script.Script, cfg config.Config) (*Program, error) {
	return lower(s, cfg, trace.Nop, 0)
}

type loweredArray struct {
	decl *script.Array
	ref  types.Reference
	elem types.Reference
	ptr  ir.Value
}

type lowering struct {
	s      *script.Script
	in     *types.Interner
	reg    *region.Registry
	em     *codegen.Emitter
	b      *ir.Builder
	out    ir.Value
	box    types.Reference
	arrays map[string]*loweredArray
}

func lower(s *script.Script, cfg config.Config, tracer trace.Tracer, parent uint64) (*Program, error) {
	def := cfg.Region()
	if id, ok := s.RegionID(); ok {
		def = id
	}
	in := types.NewInterner()
	reg, err := region.NewRegistry(in, def)
	if err != nil {
		return nil, err
	}
	f := ir.NewFunc(EntryName, ir.Void, ir.Param{Name: "out", Type: OutType(len(s.Ops))})
	l := &lowering{
		s:      s,
		in:     in,
		reg:    reg,
		em:     codegen.New(reg, cfg.CodegenOptions()).WithTracer(tracer, parent),
		b:      ir.NewBuilder(f),
		arrays: make(map[string]*loweredArray, len(s.Arrays)),
	}
	l.out = l.b.Param(0)

	for i := range s.Arrays {
		if err := l.declare(&s.Arrays[i]); err != nil {
			return nil, fmt.Errorf("array %q: %w", s.Arrays[i].Name, err)
		}
	}
	for k, op := range s.Ops {
		if err := l.lowerOp(k, op); err != nil {
			return nil, fmt.Errorf("op[%d] (%s %s): %w", k, op.Kind, op.Array, err)
		}
	}
	if err := l.b.RetVoid(); err != nil {
		return nil, err
	}

	mod := ir.NewModule(s.Name)
	for _, t := range reg.Wrappers() {
		mod.DeclareStruct(t)
	}
	if err := mod.AddFunc(f); err != nil {
		return nil, err
	}
	return &Program{Module: mod, Ops: s.Ops, Region: def}, nil
}

func (l *lowering) boxRef() (types.Reference, error) {
	if l.box.IsValid() {
		return l.box, nil
	}
	id, err := l.in.RegisterStruct("Box", []types.Field{{Name: "value", Type: l.in.Builtins().IntRef}})
	if err != nil {
		return types.Reference{}, err
	}
	l.box = types.Reference{Ownership: types.Own, Location: types.Yonder, Referend: id}
	return l.box, nil
}

func (l *lowering) elemRef(kind script.ElemKind) (types.Reference, error) {
	switch kind {
	case script.ElemInt:
		return l.in.Builtins().IntRef, nil
	case script.ElemBool:
		return l.in.Builtins().BoolRef, nil
	case script.ElemBox:
		return l.boxRef()
	default:
		return types.Reference{}, fmt.Errorf("unknown element kind %q", kind)
	}
}

// declare allocates and constructs one array literal.
func (l *lowering) declare(a *script.Array) error {
	elem, err := l.elemRef(a.Elem)
	if err != nil {
		return err
	}
	var id types.TypeID
	if a.Kind == script.KnownSize {
		id, err = l.in.RegisterKnownSizeArray(elem, len(a.Values))
	} else {
		id, err = l.in.RegisterUnknownSizeArray(elem)
	}
	if err != nil {
		return err
	}
	ref := types.Reference{Ownership: types.Own, Location: types.Yonder, Referend: id}
	wt, err := l.reg.WrapperType(id)
	if err != nil {
		return err
	}
	arr := &loweredArray{decl: a, ref: ref, elem: elem}
	l.arrays[a.Name] = arr

	if a.Kind == script.KnownSize {
		arr.ptr = l.b.Alloca(wt, a.Name)
		elems := make([]region.Ref, len(a.Values))
		for i, v := range a.Values {
			if elems[i], err = l.makeElem(elem, a.Elem, v); err != nil {
				return err
			}
		}
		return l.em.ConstructKnownSizeArray(l.b, codegen.WrapperPtr{Type: id, Ptr: arr.ptr}, elems)
	}

	n := len(a.Values)
	storage := ir.StructOf(wt.Fields[0], wt.Fields[1], ir.ArrayOf(wt.Fields[2].Elem, n))
	slot := l.b.Alloca(storage, a.Name+".storage")
	if arr.ptr, err = l.b.BitCast(slot, ir.PtrTo(wt), a.Name); err != nil {
		return err
	}
	literal, err := l.literalTable(a, elem)
	if err != nil {
		return err
	}
	size := l.em.IntRef(ir.ConstI64(int64(n)))
	return l.em.ConstructUnknownSizeArray(l.b, codegen.WrapperPtr{Type: id, Ptr: arr.ptr}, size,
		func(index region.Ref, b *ir.Builder) (region.Ref, error) {
			el, err := l.em.LoadElement(b, literal, elem, size, index)
			return el.Ref, err
		})
}

// literalTable spills an unknown-size array's values into a local array
// the constructor's generator reads from.
func (l *lowering) literalTable(a *script.Array, elem types.Reference) (ir.Value, error) {
	elemT, err := l.reg.TranslateType(elem)
	if err != nil {
		return ir.Value{}, err
	}
	table := l.b.Alloca(ir.ArrayOf(elemT, len(a.Values)), a.Name+".literal")
	size := l.em.IntRef(ir.ConstI64(int64(len(a.Values))))
	for i, v := range a.Values {
		ref, err := l.makeElem(elem, a.Elem, v)
		if err != nil {
			return ir.Value{}, err
		}
		raw, err := l.em.Validate(l.b, elem, ref)
		if err != nil {
			return ir.Value{}, err
		}
		idx, err := l.em.CheckIndexInBounds(l.b, size, l.em.IntRef(ir.ConstI64(int64(i))))
		if err != nil {
			return ir.Value{}, err
		}
		if err := l.em.StoreInnerArrayMember(l.b, table, idx, raw); err != nil {
			return ir.Value{}, err
		}
	}
	return table, nil
}

// makeElem materializes v as an element of elem.
func (l *lowering) makeElem(elem types.Reference, kind script.ElemKind, v int64) (region.Ref, error) {
	switch kind {
	case script.ElemInt:
		return l.em.IntRef(ir.ConstI64(v)), nil
	case script.ElemBool:
		return l.reg.RegionFor(elem).Wrap(elem, ir.ConstBool(v != 0)), nil
	case script.ElemBox:
		wt, err := l.reg.WrapperType(elem.Referend)
		if err != nil {
			return region.Ref{}, err
		}
		slot := l.b.Alloca(wt, "box")
		w := codegen.WrapperPtr{Type: elem.Referend, Ptr: slot}
		if err := l.em.ConstructStruct(l.b, w, []region.Ref{l.em.IntRef(ir.ConstI64(v))}); err != nil {
			return region.Ref{}, err
		}
		return l.reg.RegionFor(elem).Wrap(elem, slot), nil
	default:
		return region.Ref{}, fmt.Errorf("unknown element kind %q", kind)
	}
}

// intValue reads an element as an i64: ints as is, bools widened, boxes
// through their only field.
func (l *lowering) intValue(b *ir.Builder, arr *loweredArray, el region.Ref) (ir.Value, error) {
	intRef := l.in.Builtins().IntRef
	switch arr.decl.Elem {
	case script.ElemInt:
		return l.em.Validate(b, intRef, el)
	case script.ElemBool:
		raw, err := l.em.Validate(b, arr.elem, el)
		if err != nil {
			return ir.Value{}, err
		}
		return b.ZExt(raw, "asInt")
	case script.ElemBox:
		w, err := l.em.Wrapper(b, arr.elem, el)
		if err != nil {
			return ir.Value{}, err
		}
		field, err := l.em.LoadField(b, w, 0)
		if err != nil {
			return ir.Value{}, err
		}
		return l.em.Validate(b, intRef, field)
	default:
		return ir.Value{}, fmt.Errorf("unknown element kind %q", arr.decl.Elem)
	}
}

func (l *lowering) storeResult(k int, v ir.Value) error {
	slot, err := l.b.StructGEP(l.out, k, fmt.Sprintf("result%d", k))
	if err != nil {
		return err
	}
	return l.b.Store(v, slot)
}

func (l *lowering) lowerOp(k int, op script.Op) error {
	arr, ok := l.arrays[op.Array]
	if !ok {
		return fmt.Errorf("unknown array %q", op.Array)
	}
	b := l.b
	w, err := l.em.Wrapper(b, arr.ref, l.reg.RegionFor(arr.ref).Wrap(arr.ref, arr.ptr))
	if err != nil {
		return err
	}
	if op.Kind == script.OpDrop {
		acc, err := b.MakeLocal("dropped", ir.I64, ir.ConstI64(0))
		if err != nil {
			return err
		}
		err = l.em.DestroyArrayElements(b, w, func(el codegen.LoadResult, b *ir.Builder) error {
			v, err := l.intValue(b, arr, el.Ref)
			if err != nil {
				return err
			}
			return accumulate(b, acc, v)
		})
		if err != nil {
			return err
		}
		return l.storeLocal(k, acc)
	}

	elems, err := l.em.ElementsPtr(b, w)
	if err != nil {
		return err
	}
	size, err := l.em.ArrayLength(b, w)
	if err != nil {
		return err
	}

	switch op.Kind {
	case script.OpLen:
		raw, err := l.em.Validate(b, l.in.Builtins().IntRef, size)
		if err != nil {
			return err
		}
		return l.storeResult(k, raw)

	case script.OpLoad:
		el, err := l.em.LoadElement(b, elems, arr.elem, size, l.em.IntRef(ir.ConstI64(*op.Index)))
		if err != nil {
			return err
		}
		v, err := l.intValue(b, arr, el.Ref)
		if err != nil {
			return err
		}
		return l.storeResult(k, v)

	case script.OpSwap:
		src, err := l.makeElem(arr.elem, arr.decl.Elem, *op.Value)
		if err != nil {
			return err
		}
		prev, err := l.em.SwapElement(b, types.Yonder, arr.elem, size, elems, l.em.IntRef(ir.ConstI64(*op.Index)), src)
		if err != nil {
			return err
		}
		v, err := l.intValue(b, arr, prev.Ref)
		if err != nil {
			return err
		}
		return l.storeResult(k, v)

	case script.OpInit:
		src, err := l.makeElem(arr.elem, arr.decl.Elem, *op.Value)
		if err != nil {
			return err
		}
		index := l.em.IntRef(ir.ConstI64(*op.Index))
		if err := l.em.InitializeElement(b, types.Yonder, arr.elem, size, elems, index, src); err != nil {
			return err
		}
		el, err := l.em.LoadElement(b, elems, arr.elem, size, index)
		if err != nil {
			return err
		}
		v, err := l.intValue(b, arr, el.Ref)
		if err != nil {
			return err
		}
		return l.storeResult(k, v)

	case script.OpSum, script.OpSumReverse:
		acc, err := b.MakeLocal("sum", ir.I64, ir.ConstI64(0))
		if err != nil {
			return err
		}
		body := func(index region.Ref, b *ir.Builder) error {
			el, err := l.em.LoadElement(b, elems, arr.elem, size, index)
			if err != nil {
				return err
			}
			v, err := l.intValue(b, arr, el.Ref)
			if err != nil {
				return err
			}
			return accumulate(b, acc, v)
		}
		if op.Kind == script.OpSum {
			err = l.em.IntRangeLoop(b, size, body)
		} else {
			err = l.em.IntRangeLoopReverse(b, size, body)
		}
		if err != nil {
			return err
		}
		return l.storeLocal(k, acc)

	case script.OpFirstIndexReverse:
		found, err := b.MakeLocal("foundAt", ir.I64, ir.ConstI64(-1))
		if err != nil {
			return err
		}
		target := *op.Value
		err = l.em.IntRangeLoopReverse(b, size, func(index region.Ref, b *ir.Builder) error {
			el, err := l.em.LoadElement(b, elems, arr.elem, size, index)
			if err != nil {
				return err
			}
			v, err := l.intValue(b, arr, el.Ref)
			if err != nil {
				return err
			}
			return l.recordFirst(b, found, index, v, target)
		})
		if err != nil {
			return err
		}
		return l.storeLocal(k, found)

	default:
		return fmt.Errorf("unsupported op %q", op.Kind)
	}
}

// recordFirst stores index into found when v matches target and nothing
// was recorded yet.
func (l *lowering) recordFirst(b *ir.Builder, found ir.Value, index region.Ref, v ir.Value, target int64) error {
	match, err := b.ICmp(ir.PredEQ, v, ir.ConstI64(target), "isMatch")
	if err != nil {
		return err
	}
	prev, err := b.Load(found, "foundSoFar")
	if err != nil {
		return err
	}
	none, err := b.ICmp(ir.PredSLT, prev, ir.ConstI64(0), "notFoundYet")
	if err != nil {
		return err
	}
	take, err := b.And(match, none, "isFirstMatch")
	if err != nil {
		return err
	}
	hit := b.NewBlock("match")
	join := b.NewBlock("match.end")
	if err := b.CondBr(take, hit, join); err != nil {
		return err
	}
	b.SetInsertPoint(hit)
	idx, err := l.em.Validate(b, l.in.Builtins().IntRef, index)
	if err != nil {
		return err
	}
	if err := b.Store(idx, found); err != nil {
		return err
	}
	if err := b.Br(join); err != nil {
		return err
	}
	b.SetInsertPoint(join)
	return nil
}

func (l *lowering) storeLocal(k int, slot ir.Value) error {
	v, err := l.b.Load(slot, "result")
	if err != nil {
		return err
	}
	return l.storeResult(k, v)
}

func accumulate(b *ir.Builder, acc, v ir.Value) error {
	cur, err := b.Load(acc, "acc")
	if err != nil {
		return err
	}
	next, err := b.Add(cur, v, "acc.next")
	if err != nil {
		return err
	}
	return b.Store(next, acc)
}
