package testkit

import (
	"bytes"
	"fmt"

	"tessera/internal/ir"
	"tessera/internal/vm"
)

// OutType is the parameter type of an n-slot result buffer.
func OutType(n int) *ir.Type {
	fields := make([]*ir.Type, n)
	for i := range fields {
		fields[i] = ir.I64
	}
	return ir.PtrTo(ir.StructOf(fields...))
}

// StoreOut writes v into slot k of the result buffer out.
func StoreOut(b *ir.Builder, out ir.Value, k int, v ir.Value) error {
	slot, err := b.StructGEP(out, k, fmt.Sprintf("out%d", k))
	if err != nil {
		return err
	}
	return b.Store(v, slot)
}

// Result is what one harness run observed.
type Result struct {
	Out    []int64
	Flares string
}

// Exec validates mod and calls fn(out, args...) with an n-slot result
// buffer whose slots start at fill. A program panic is returned as a
// *vm.VMError together with the slots written so far.
func Exec(mod *ir.Module, fn string, n int, fill int64, args ...int64) (Result, error) {
	if err := ir.Validate(mod); err != nil {
		return Result{}, err
	}
	var flares bytes.Buffer
	machine := vm.New(mod, vm.Options{Trace: &flares})
	size, err := OutSlots(n)
	if err != nil {
		return Result{}, err
	}
	out, err := machine.Alloc(size, 8)
	if err != nil {
		return Result{}, err
	}
	for k := range n {
		if err := machine.WriteI64(out+uint64(k*8), fill); err != nil { //nolint:gosec // k is small
			return Result{}, err
		}
	}
	_, callErr := machine.Call(fn, append([]int64{int64(out)}, args...)...) //nolint:gosec // pointer encoding
	res := Result{Out: make([]int64, n), Flares: flares.String()}
	for k := range n {
		v, err := machine.ReadI64(out + uint64(k*8)) //nolint:gosec // k is small
		if err != nil {
			return res, err
		}
		res.Out[k] = v
	}
	return res, callErr
}
