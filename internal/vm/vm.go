// Package vm executes IR functions over a byte-addressed memory so that
// emitted code can be run and observed without a native backend.
package vm

import (
	"errors"
	"fmt"
	"io"

	"tessera/internal/ir"
	"tessera/internal/layout"
)

// DefaultMaxSteps bounds execution when Options.MaxSteps is zero.
const DefaultMaxSteps = 1_000_000

// Options configures a VM.
type Options struct {
	MaxSteps int       // instruction budget per Call (0 = DefaultMaxSteps)
	Trace    io.Writer // receives flares; nil discards them
}

// VM runs the functions of one module.
type VM struct {
	mod    *ir.Module
	layout *layout.Engine
	opts   Options
	mem    *rawMemory
	steps  int
	top    *frame
}

type frame struct {
	fn      *ir.Func
	args    []int64
	regs    map[int]int64
	allocas []uint64
	block   ir.BlockID
}

// New creates a VM for mod.
func New(mod *ir.Module, opts Options) *VM {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &VM{
		mod:    mod,
		layout: layout.New(layout.X86_64LinuxGNU()),
		opts:   opts,
		mem:    newRawMemory(),
	}
}

// Layout returns the layout engine addresses are computed with.
func (vm *VM) Layout() *layout.Engine { return vm.layout }

// Alloc reserves size zeroed bytes and returns a pointer to them.
func (vm *VM) Alloc(size, align int) (uint64, error) {
	p, vmErr := vm.rawAlloc(size, align)
	if vmErr != nil {
		return 0, vmErr
	}
	return p, nil
}

// AllocType reserves storage for one value of t.
func (vm *VM) AllocType(t *ir.Type) (uint64, error) {
	l, err := vm.layout.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	return vm.Alloc(l.Size, l.Align)
}

// Free releases an allocation made by Alloc.
func (vm *VM) Free(p uint64) error {
	if vmErr := vm.rawFree(p); vmErr != nil {
		return vmErr
	}
	return nil
}

// ReadI64 reads the i64 at p.
func (vm *VM) ReadI64(p uint64) (int64, error) {
	v, vmErr := vm.readScalar(p, 8)
	if vmErr != nil {
		return 0, vmErr
	}
	return v, nil
}

// WriteI64 writes v at p.
func (vm *VM) WriteI64(p uint64, v int64) error {
	if vmErr := vm.writeScalar(p, 8, v); vmErr != nil {
		return vmErr
	}
	return nil
}

// Call runs the named function. Pointer arguments are passed as their
// integer encoding.
func (vm *VM) Call(name string, args ...int64) (int64, error) {
	fn := vm.mod.Func(name)
	if fn == nil {
		return 0, fmt.Errorf("vm: no function %q", name)
	}
	if len(args) != len(fn.Params) {
		return 0, fmt.Errorf("vm: %s takes %d arguments, got %d", name, len(fn.Params), len(args))
	}
	vm.steps = 0
	res, vmErr := vm.run(fn, args)
	if vmErr != nil {
		return 0, vmErr
	}
	return res, nil
}

// AsVMError extracts the program panic from err.
func AsVMError(err error) (*VMError, bool) {
	var vmErr *VMError
	ok := errors.As(err, &vmErr)
	return vmErr, ok
}

func (vm *VM) run(fn *ir.Func, args []int64) (int64, *VMError) {
	fr := &frame{
		fn:    fn,
		args:  args,
		regs:  make(map[int]int64, 32),
		block: fn.Entry,
	}
	prev := vm.top
	vm.top = fr
	defer func() {
		for _, p := range fr.allocas {
			_ = vm.rawFree(p) //nolint:errcheck // allocas are only freed here
		}
		vm.top = prev
	}()

	for {
		bb := fn.Block(fr.block)
		if bb == nil {
			return 0, vm.makeError(PanicUnimplemented, fmt.Sprintf("jump to missing block %d", fr.block))
		}
		for i := range bb.Instrs {
			vm.steps++
			if vm.steps > vm.opts.MaxSteps {
				return 0, vm.makeError(PanicStepLimit, fmt.Sprintf("step limit %d exceeded", vm.opts.MaxSteps))
			}
			if vmErr := vm.exec(fr, &bb.Instrs[i]); vmErr != nil {
				return 0, vmErr
			}
		}
		next, res, done, vmErr := vm.terminate(fr, &bb.Term)
		if vmErr != nil || done {
			return res, vmErr
		}
		fr.block = next
	}
}

func (vm *VM) terminate(fr *frame, t *ir.Terminator) (next ir.BlockID, res int64, done bool, vmErr *VMError) {
	switch t.Kind {
	case ir.TermBr:
		return t.Br.Target, 0, false, nil
	case ir.TermCondBr:
		c, vmErr := vm.value(fr, t.CondBr.Cond)
		if vmErr != nil {
			return 0, 0, false, vmErr
		}
		if c != 0 {
			return t.CondBr.Then, 0, false, nil
		}
		return t.CondBr.Else, 0, false, nil
	case ir.TermRet:
		if !t.Ret.HasValue {
			return 0, 0, true, nil
		}
		v, vmErr := vm.value(fr, t.Ret.Value)
		return 0, v, true, vmErr
	case ir.TermUnreachable:
		return 0, 0, true, vm.makeError(PanicAssert, "unreachable executed")
	default:
		return 0, 0, true, vm.unimplemented("unterminated block")
	}
}
