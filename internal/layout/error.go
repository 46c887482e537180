package layout

import "fmt"

// LayoutErrorKind classifies layout failures.
type LayoutErrorKind uint8

const (
	LayoutErrUnsized          LayoutErrorKind = iota + 1 // void, or an aggregate containing it
	LayoutErrLengthConversion                            // array byte size overflows
	LayoutErrNegativeLength
	LayoutErrNoField // field index outside a struct, or a non-struct
)

// LayoutError reports a type the engine cannot lay out.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string
	Value int64 // the offending length or field index
	Err   error
}

func (e *LayoutError) Error() string {
	switch e.Kind {
	case LayoutErrUnsized:
		return fmt.Sprintf("layout: %s has no size", e.Type)
	case LayoutErrLengthConversion:
		return fmt.Sprintf("layout: %s is too large: %v", e.Type, e.Err)
	case LayoutErrNegativeLength:
		return fmt.Sprintf("layout: %s has negative length %d", e.Type, e.Value)
	case LayoutErrNoField:
		return fmt.Sprintf("layout: %s has no field %d", e.Type, e.Value)
	}
	return fmt.Sprintf("layout: %s: error kind %d", e.Type, e.Kind)
}

func (e *LayoutError) Unwrap() error { return e.Err }
