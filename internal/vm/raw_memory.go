package vm

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// Handle identifies one allocation.
type Handle uint32

// Pointers are handle<<32 | offset; the null pointer is 0.
func makePtr(h Handle, off uint32) uint64 {
	return uint64(h)<<32 | uint64(off)
}

func splitPtr(p uint64) (Handle, uint32) {
	return Handle(p >> 32), uint32(p)
}

type rawAlloc struct {
	data  []byte
	align int
	freed bool
}

type rawMemory struct {
	next   Handle
	allocs map[Handle]*rawAlloc
}

func newRawMemory() *rawMemory {
	return &rawMemory{
		next:   1,
		allocs: make(map[Handle]*rawAlloc, 64),
	}
}

func (vm *VM) rawAlloc(size, align int) (uint64, *VMError) {
	if size < 0 {
		return 0, vm.memoryFault("alloc size %d out of range", size)
	}
	if _, err := safecast.Conv[uint32](size); err != nil {
		return 0, vm.memoryFault("alloc size %d out of range", size)
	}
	if align <= 0 {
		align = 1
	}
	h := vm.mem.next
	vm.mem.next++
	vm.mem.allocs[h] = &rawAlloc{
		data:  make([]byte, size),
		align: align,
	}
	return makePtr(h, 0), nil
}

// rawSlice returns the n bytes at p, or a fault when any of them lies
// outside a live allocation.
func (vm *VM) rawSlice(p uint64, n int) ([]byte, *VMError) {
	h, off := splitPtr(p)
	if h == 0 {
		return nil, vm.memoryFault("null pointer dereference (%#x)", p)
	}
	alloc, ok := vm.mem.allocs[h]
	if !ok || alloc == nil {
		return nil, vm.memoryFault("invalid pointer %#x", p)
	}
	if alloc.freed {
		return nil, vm.memoryFault("use-after-free: %#x", p)
	}
	end := int(off) + n
	if end > len(alloc.data) {
		return nil, vm.memoryFault("access of %d bytes at %#x outside allocation of %d bytes", n, p, len(alloc.data))
	}
	return alloc.data[off:end], nil
}

func (vm *VM) rawFree(p uint64) *VMError {
	h, off := splitPtr(p)
	alloc, ok := vm.mem.allocs[h]
	if h == 0 || off != 0 || !ok || alloc == nil {
		return vm.memoryFault("invalid free of %#x", p)
	}
	if alloc.freed {
		return vm.memoryFault("double free: %#x", p)
	}
	alloc.freed = true
	alloc.data = nil
	return nil
}

func (vm *VM) readScalar(p uint64, width int) (int64, *VMError) {
	buf, vmErr := vm.rawSlice(p, width)
	if vmErr != nil {
		return 0, vmErr
	}
	switch width {
	case 1:
		return int64(buf[0] & 1), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(buf)), nil //nolint:gosec // bit pattern reinterpretation
	default:
		return 0, vm.unimplemented(fmt.Sprintf("%d-byte load", width))
	}
}

func (vm *VM) writeScalar(p uint64, width int, v int64) *VMError {
	buf, vmErr := vm.rawSlice(p, width)
	if vmErr != nil {
		return vmErr
	}
	switch width {
	case 1:
		buf[0] = byte(v & 1)
	case 8:
		binary.LittleEndian.PutUint64(buf, uint64(v)) //nolint:gosec // bit pattern reinterpretation
	default:
		return vm.unimplemented(fmt.Sprintf("%d-byte store", width))
	}
	return nil
}

// offsetPtr moves p by delta bytes inside its allocation's address space.
// The result is only checked when dereferenced.
func offsetPtr(p uint64, delta int64) uint64 {
	h, off := splitPtr(p)
	return makePtr(h, uint32(int64(off)+delta)) //nolint:gosec // wraps like the target's pointer arithmetic
}
