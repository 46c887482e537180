package types

import "fmt"

// Ownership describes how a reference relates to the lifetime of its referend.
type Ownership uint8

const (
	Own Ownership = iota
	Borrow
	Share
	Weak
)

func (o Ownership) String() string {
	switch o {
	case Own:
		return "own"
	case Borrow:
		return "borrow"
	case Share:
		return "share"
	case Weak:
		return "weak"
	default:
		return fmt.Sprintf("ownership(%d)", uint8(o))
	}
}

// Location says where the referend lives relative to its holder.
type Location uint8

const (
	// Inline values are stored directly in their holder.
	Inline Location = iota
	// Yonder values live behind a pointer.
	Yonder
)

func (l Location) String() string {
	if l == Inline {
		return "inl"
	}
	return "yon"
}

// Reference is the declared type of a reference: what it points at and how.
type Reference struct {
	Ownership Ownership
	Location  Location
	Referend  TypeID
}

// IsValid reports whether the reference names a referend.
func (r Reference) IsValid() bool {
	return r.Referend != NoTypeID
}

func (r Reference) String() string {
	return fmt.Sprintf("%s %s type#%d", r.Ownership, r.Location, r.Referend)
}
