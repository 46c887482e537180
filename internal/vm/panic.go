package vm

import (
	"fmt"
	"strings"

	"tessera/internal/ir"
)

// PanicCode identifies the type of VM panic.
type PanicCode int

// Stable panic codes - do not change values.
const (
	PanicAssert           PanicCode = 1000 // VM1000: failed assertion
	PanicUseBeforeInit    PanicCode = 1001 // VM1001: value used before definition
	PanicOutOfBounds      PanicCode = 1004 // VM1004: out of bounds
	PanicInvalidReference PanicCode = 1007 // VM1007: null or invalid reference
	PanicDangling         PanicCode = 1008 // VM1008: reference to a dead object
	PanicMemoryFault      PanicCode = 1009 // VM1009: access outside any live allocation
	PanicStepLimit        PanicCode = 1010 // VM1010: step budget exhausted
	PanicUnimplemented    PanicCode = 1999 // VM1999: unimplemented instruction/terminator
)

// String returns the code as "VM1004" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

func codeFor(kind ir.PanicKind) PanicCode {
	switch kind {
	case ir.PanicBounds:
		return PanicOutOfBounds
	case ir.PanicInvalidRef:
		return PanicInvalidReference
	case ir.PanicDangling:
		return PanicDangling
	default:
		return PanicAssert
	}
}

// VMError represents a runtime panic of the executed program.
type VMError struct {
	Code    PanicCode
	Message string
	Func    string
	Block   string
}

// Error implements the error interface.
func (p *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", p.Code, p.Message)
}

// Pretty renders the panic with its location.
func (p *VMError) Pretty() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "panic %s: %s\n", p.Code, p.Message)
	if p.Func != "" {
		fmt.Fprintf(&sb, "at %s/%s\n", p.Func, p.Block)
	}
	return sb.String()
}

func (vm *VM) makeError(code PanicCode, msg string) *VMError {
	e := &VMError{Code: code, Message: msg}
	if fr := vm.top; fr != nil {
		e.Func = fr.fn.Name
		if bb := fr.fn.Block(fr.block); bb != nil {
			e.Block = fmt.Sprintf("%s.%d", bb.Name, bb.ID)
		}
	}
	return e
}

func (vm *VM) memoryFault(format string, args ...any) *VMError {
	return vm.makeError(PanicMemoryFault, fmt.Sprintf(format, args...))
}

func (vm *VM) unimplemented(what string) *VMError {
	return vm.makeError(PanicUnimplemented, fmt.Sprintf("unimplemented: %s", what))
}
