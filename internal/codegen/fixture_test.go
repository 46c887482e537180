package codegen

import (
	"testing"

	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/testkit"
	"tessera/internal/types"
)

type fixture struct {
	t   *testing.T
	in  *types.Interner
	reg *region.Registry
	em  *Emitter
	mod *ir.Module
}

func newFixture(t *testing.T, def region.ID, opts Options) *fixture {
	t.Helper()
	in := types.NewInterner()
	reg, err := region.NewRegistry(in, def)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return &fixture{t: t, in: in, reg: reg, em: New(reg, opts), mod: ir.NewModule("test")}
}

func (fx *fixture) intRef() types.Reference {
	return fx.in.Builtins().IntRef
}

func (fx *fixture) knownArray(n int) types.Reference {
	fx.t.Helper()
	id, err := fx.in.RegisterKnownSizeArray(fx.intRef(), n)
	if err != nil {
		fx.t.Fatalf("register ksa: %v", err)
	}
	return types.Reference{Ownership: types.Own, Location: types.Yonder, Referend: id}
}

func (fx *fixture) unknownArray(elem types.Reference) types.Reference {
	fx.t.Helper()
	id, err := fx.in.RegisterUnknownSizeArray(elem)
	if err != nil {
		fx.t.Fatalf("register usa: %v", err)
	}
	return types.Reference{Ownership: types.Own, Location: types.Yonder, Referend: id}
}

// local allocates an uninitialized wrapper for arr.
func (fx *fixture) local(b *ir.Builder, arr types.Reference) WrapperPtr {
	fx.t.Helper()
	wt, err := fx.reg.WrapperType(arr.Referend)
	if err != nil {
		fx.t.Fatalf("wrapper type: %v", err)
	}
	return WrapperPtr{Type: arr.Referend, Ptr: b.Alloca(wt, "arr")}
}

// localUnknown allocates room for n elements behind an unknown-size wrapper.
func (fx *fixture) localUnknown(b *ir.Builder, arr types.Reference, n int) WrapperPtr {
	fx.t.Helper()
	wt, err := fx.reg.WrapperType(arr.Referend)
	if err != nil {
		fx.t.Fatalf("wrapper type: %v", err)
	}
	storage := ir.StructOf(wt.Fields[0], wt.Fields[1], ir.ArrayOf(wt.Fields[2].Elem, n))
	slot := b.Alloca(storage, "arrStorage")
	cast, err := b.BitCast(slot, ir.PtrTo(wt), "arr")
	if err != nil {
		fx.t.Fatalf("bitcast: %v", err)
	}
	return WrapperPtr{Type: arr.Referend, Ptr: cast}
}

// build creates fn(out, params...) and runs body on it. The builder is
// closed with `ret void` when body leaves it open.
func (fx *fixture) build(name string, nOut int, params []ir.Param, body func(b *ir.Builder, out ir.Value) error) *ir.Func {
	fx.t.Helper()
	all := append([]ir.Param{{Name: "out", Type: testkit.OutType(nOut)}}, params...)
	f := ir.NewFunc(name, ir.Void, all...)
	b := ir.NewBuilder(f)
	if err := body(b, b.Param(0)); err != nil {
		fx.t.Fatalf("%s: %v", name, err)
	}
	if !b.Terminated() {
		if err := b.RetVoid(); err != nil {
			fx.t.Fatalf("%s: ret: %v", name, err)
		}
	}
	if err := fx.mod.AddFunc(f); err != nil {
		fx.t.Fatalf("%s: %v", name, err)
	}
	return f
}

func (fx *fixture) int(b *ir.Builder, ref region.Ref) ir.Value {
	fx.t.Helper()
	v, err := fx.em.Validate(b, fx.intRef(), ref)
	if err != nil {
		fx.t.Fatalf("validate int: %v", err)
	}
	return v
}

func i64Param(name string) ir.Param {
	return ir.Param{Name: name, Type: ir.I64}
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
