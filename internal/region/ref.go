package region

import (
	"fmt"
	"path/filepath"
	"runtime"

	"tessera/internal/ir"
	"tessera/internal/types"
)

// Ref is a region-typed handle to a value.
type Ref struct {
	raw      ir.Value
	declared types.Reference
	region   ID
}

// Declared returns the reference type the value was wrapped with.
func (r Ref) Declared() types.Reference { return r.declared }

// Region returns the owning region.
func (r Ref) Region() ID { return r.region }

// IRType returns the low-level type of the underlying value.
func (r Ref) IRType() *ir.Type { return r.raw.Type }

// IsValid reports whether r wraps anything.
func (r Ref) IsValid() bool { return r.raw.IsValid() }

func (r Ref) String() string {
	return fmt.Sprintf("ref(%s, %s, %s)", r.declared, r.region, r.raw.Type)
}

// Loc is a codegen call site, attached to compiler-internal errors.
type Loc struct {
	File string
	Line int
}

// Here returns the location of its caller.
func Here() Loc {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return Loc{File: "?"}
	}
	return Loc{File: filepath.Base(file), Line: line}
}

func (l Loc) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// CheckError is a compiler-internal failure found while validating a
// reference: the compiler handed a region something it cannot be.
type CheckError struct {
	Loc    Loc
	Region ID
	Msg    string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s region: %s", e.Loc, e.Region, e.Msg)
}
