package ir

import "fmt"

// Error reports misuse of the builder: the caller asked for an
// instruction whose operands do not type-check.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ir: %s: %s", e.Op, e.Msg)
}

func errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...)}
}
