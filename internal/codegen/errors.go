package codegen

import (
	"errors"
	"fmt"

	"tessera/internal/region"
)

// ErrInlineElements reports a mutation of an array stored inline in its
// holder. Only wrapper-backed arrays are supported.
var ErrInlineElements = errors.New("mutating inline array elements is not supported")

// InternalError is a compiler-internal invariant violation. It aborts the
// compilation; it never describes the compiled program.
type InternalError struct {
	Op  string
	Loc region.Loc
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("codegen %s (%s): %v", e.Op, e.Loc, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func internalErr(op string, loc region.Loc, err error) error {
	if err == nil {
		return nil
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return err
	}
	return &InternalError{Op: op, Loc: loc, Err: err}
}

func internalf(op string, loc region.Loc, format string, args ...any) error {
	return &InternalError{Op: op, Loc: loc, Err: fmt.Errorf(format, args...)}
}
