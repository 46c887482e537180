package codegen

import (
	"testing"

	"tessera/internal/ir"
	"tessera/internal/region"
	"tessera/internal/testkit"
	"tessera/internal/vm"
)

func TestCheckIndexInBounds(t *testing.T) {
	fx := newFixture(t, region.Resilient, DefaultOptions())
	fx.build("check", 1, []ir.Param{i64Param("size"), i64Param("index")}, func(b *ir.Builder, out ir.Value) error {
		idx, err := fx.em.CheckIndexInBounds(b, fx.em.IntRef(b.Param(1)), fx.em.IntRef(b.Param(2)))
		if err != nil {
			return err
		}
		return testkit.StoreOut(b, out, 0, idx)
	})

	cases := []struct {
		size, index int64
		ok          bool
	}{
		{3, 0, true},
		{3, 2, true},
		{1, 0, true},
		{3, 3, false},
		{3, -1, false},
		{0, 0, false},
		{-5, 0, false},
		{3, -1 << 62, false},
	}
	for _, tc := range cases {
		res, err := testkit.Exec(fx.mod, "check", 1, -7, tc.size, tc.index)
		if tc.ok {
			if err != nil {
				t.Fatalf("size=%d index=%d: unexpected error %v", tc.size, tc.index, err)
			}
			if res.Out[0] != tc.index {
				t.Fatalf("size=%d index=%d: got %d", tc.size, tc.index, res.Out[0])
			}
			continue
		}
		vmErr, ok := vm.AsVMError(err)
		if !ok {
			t.Fatalf("size=%d index=%d: expected VM panic, got %v", tc.size, tc.index, err)
		}
		if vmErr.Code != vm.PanicOutOfBounds || vmErr.Message != "Index out of bounds!" {
			t.Fatalf("size=%d index=%d: got %s %q", tc.size, tc.index, vmErr.Code, vmErr.Message)
		}
		if res.Out[0] != -7 {
			t.Fatalf("size=%d index=%d: result written despite failed check", tc.size, tc.index)
		}
	}
}

func TestCheckIndexInBoundsRejectsNarrowIndex(t *testing.T) {
	fx := newFixture(t, region.Unsafe, DefaultOptions())
	f := ir.NewFunc("narrow", ir.Void, ir.Param{Name: "flag", Type: ir.I1})
	b := ir.NewBuilder(f)
	bad := fx.reg.RegionFor(fx.intRef()).Wrap(fx.intRef(), b.Param(0))
	if _, err := fx.em.CheckIndexInBounds(b, fx.em.IntRef(ir.ConstI64(3)), bad); err == nil {
		t.Fatalf("expected an internal error for an i1 index")
	}
}
