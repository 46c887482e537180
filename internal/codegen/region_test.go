package codegen

import (
	"testing"

	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/testkit"
	"tessera/internal/types"
	"tessera/internal/vm"
)

type boxFixture struct {
	*fixture
	box    types.TypeID
	boxRef types.Reference
	arr    types.Reference
}

func newBoxFixture(t *testing.T, def region.ID) *boxFixture {
	fx := newFixture(t, def, DefaultOptions())
	box, err := fx.in.RegisterStruct("Box", []types.Field{{Name: "value", Type: fx.intRef()}})
	if err != nil {
		t.Fatalf("register struct: %v", err)
	}
	boxRef := types.Reference{Ownership: types.Own, Location: types.Yonder, Referend: box}
	return &boxFixture{fixture: fx, box: box, boxRef: boxRef, arr: fx.unknownArray(boxRef)}
}

// buildBoxes emits fn(out, index) which fills an array of two boxes,
// optionally destroys it, and reads box[index].value into out[0].
func (bx *boxFixture) buildBoxes(name string, destroy bool) {
	bx.build(name, 1, []ir.Param{i64Param("index")}, func(b *ir.Builder, out ir.Value) error {
		bt, err := bx.reg.WrapperType(bx.box)
		if err != nil {
			return err
		}
		var boxes []ir.Value
		for i := range 2 {
			slot := b.Alloca(bt, "box")
			w := WrapperPtr{Type: bx.box, Ptr: slot}
			if err := bx.em.ConstructStruct(b, w, []region.Ref{bx.em.IntRef(ir.ConstI64(int64(100 + i)))}); err != nil {
				return err
			}
			boxes = append(boxes, slot)
		}
		w := bx.localUnknown(b, bx.arr, 2)
		gen := func(index region.Ref, b *ir.Builder) (region.Ref, error) {
			// index is 0 or 1; pick the matching box without branching
			i := bx.int(b, index)
			first, err := b.ICmp(ir.PredEQ, i, ir.ConstI64(0), "first")
			if err != nil {
				return region.Ref{}, err
			}
			pick := b.NewBlock("pick.first")
			other := b.NewBlock("pick.second")
			join := b.NewBlock("pick.join")
			tmp := b.Alloca(boxes[0].Type, "picked")
			if err := b.CondBr(first, pick, other); err != nil {
				return region.Ref{}, err
			}
			for blk, v := range map[ir.BlockID]ir.Value{pick: boxes[0], other: boxes[1]} {
				b.SetInsertPoint(blk)
				if err := b.Store(v, tmp); err != nil {
					return region.Ref{}, err
				}
				if err := b.Br(join); err != nil {
					return region.Ref{}, err
				}
			}
			b.SetInsertPoint(join)
			picked, err := b.Load(tmp, "box")
			if err != nil {
				return region.Ref{}, err
			}
			return bx.reg.RegionFor(bx.boxRef).Wrap(bx.boxRef, picked), nil
		}
		if err := bx.em.ConstructUnknownSizeArray(b, w, bx.em.IntRef(ir.ConstI64(2)), gen); err != nil {
			return err
		}
		if destroy {
			if err := bx.em.DestroyArrayElements(b, w, func(LoadResult, *ir.Builder) error { return nil }); err != nil {
				return err
			}
		}
		arrRef := bx.reg.RegionFor(bx.arr).Wrap(bx.arr, w.Ptr)
		w, err = bx.em.Wrapper(b, bx.arr, arrRef)
		if err != nil {
			return err
		}
		elems, err := bx.em.ElementsPtr(b, w)
		if err != nil {
			return err
		}
		size, err := bx.em.ArrayLength(b, w)
		if err != nil {
			return err
		}
		el, err := bx.em.LoadElement(b, elems, bx.boxRef, size, bx.em.IntRef(b.Param(1)))
		if err != nil {
			return err
		}
		bw, err := bx.em.Wrapper(b, bx.boxRef, el.Ref)
		if err != nil {
			return err
		}
		v, err := bx.em.LoadField(b, bw, 0)
		if err != nil {
			return err
		}
		return testkit.StoreOut(b, out, 0, bx.int(b, v))
	})
}

func TestBoxedElements(t *testing.T) {
	for _, rid := range []region.ID{region.Unsafe, region.Assist, region.Resilient} {
		t.Run(rid.String(), func(t *testing.T) {
			bx := newBoxFixture(t, rid)
			bx.buildBoxes("boxes", false)
			for i, want := range []int64{100, 101} {
				res, err := testkit.Exec(bx.mod, "boxes", 1, 0, int64(i))
				if err != nil {
					t.Fatalf("index %d: %v", i, err)
				}
				if res.Out[0] != want {
					t.Fatalf("index %d: got %d, want %d", i, res.Out[0], want)
				}
			}
		})
	}
}

func TestResilientDetectsDeadArray(t *testing.T) {
	cases := []struct {
		region region.ID
		code   vm.PanicCode
		fails  bool
	}{
		{region.Unsafe, 0, false},
		{region.Assist, 0, false},
		{region.Resilient, vm.PanicDangling, true},
	}
	for _, tc := range cases {
		t.Run(tc.region.String(), func(t *testing.T) {
			bx := newBoxFixture(t, tc.region)
			bx.buildBoxes("dead", true)
			_, err := testkit.Exec(bx.mod, "dead", 1, 0, 0)
			if !tc.fails {
				// the wrapper is still allocated; only resilient notices it is dead
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			vmErr, ok := vm.AsVMError(err)
			if !ok || vmErr.Code != tc.code || vmErr.Message != "Dangling reference!" {
				t.Fatalf("expected dangling reference panic, got %v", err)
			}
		})
	}
}

func TestAssistRejectsNullArray(t *testing.T) {
	cases := []struct {
		region region.ID
		code   vm.PanicCode
	}{
		{region.Unsafe, vm.PanicMemoryFault},
		{region.Assist, vm.PanicInvalidReference},
		{region.Resilient, vm.PanicInvalidReference},
	}
	for _, tc := range cases {
		t.Run(tc.region.String(), func(t *testing.T) {
			fx := newFixture(t, tc.region, DefaultOptions())
			arr := fx.unknownArray(fx.intRef())
			arrT, err := fx.reg.TranslateType(arr)
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			fx.build("len", 1, []ir.Param{{Name: "arr", Type: arrT}}, func(b *ir.Builder, out ir.Value) error {
				w, err := fx.em.Wrapper(b, arr, fx.reg.RegionFor(arr).Wrap(arr, b.Param(1)))
				if err != nil {
					return err
				}
				n, err := fx.em.ArrayLength(b, w)
				if err != nil {
					return err
				}
				return testkit.StoreOut(b, out, 0, fx.int(b, n))
			})
			_, err = testkit.Exec(fx.mod, "len", 1, 0, 0)
			vmErr, ok := vm.AsVMError(err)
			if !ok || vmErr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}
