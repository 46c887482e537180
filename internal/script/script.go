// Package script decodes array scripts: TOML files that declare arrays and
// a list of element operations to compile and run.
package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"tessera/internal/region"
)

// OpKind enumerates script operations.
type OpKind string

const (
	OpLoad              OpKind = "load"
	OpSwap              OpKind = "swap"
	OpInit              OpKind = "init"
	OpLen               OpKind = "len"
	OpSum               OpKind = "sum"
	OpSumReverse        OpKind = "sum_reverse"
	OpFirstIndexReverse OpKind = "first_index_reverse"
	OpDrop              OpKind = "drop"
)

// needsIndex reports whether the op addresses a single element.
func (k OpKind) needsIndex() bool {
	return k == OpLoad || k == OpSwap || k == OpInit
}

// needsValue reports whether the op carries an operand value.
func (k OpKind) needsValue() bool {
	return k == OpSwap || k == OpInit || k == OpFirstIndexReverse
}

func (k OpKind) valid() bool {
	switch k {
	case OpLoad, OpSwap, OpInit, OpLen, OpSum, OpSumReverse, OpFirstIndexReverse, OpDrop:
		return true
	}
	return false
}

// ArrayKind selects the array representation.
type ArrayKind string

const (
	KnownSize   ArrayKind = "known"
	UnknownSize ArrayKind = "unknown"
)

// ElemKind selects the element type.
type ElemKind string

const (
	ElemInt  ElemKind = "int"
	ElemBool ElemKind = "bool"
	ElemBox  ElemKind = "box" // yonder struct holding one int
)

// Array declares one array literal.
type Array struct {
	Name   string    `toml:"name"`
	Kind   ArrayKind `toml:"kind"`
	Elem   ElemKind  `toml:"elem"`
	Values []int64   `toml:"values"`
}

// Op is one operation on a declared array.
type Op struct {
	Kind   OpKind `toml:"kind"`
	Array  string `toml:"array"`
	Index  *int64 `toml:"index"`
	Value  *int64 `toml:"value"`
	Expect *int64 `toml:"expect"`
}

// Script is a decoded, validated script.
type Script struct {
	Path   string `toml:"-"`
	Name   string `toml:"name"`
	Region string `toml:"region"`
	// ExpectPanic, when set, is the message the run must abort with.
	ExpectPanic string  `toml:"expect_panic"`
	Arrays      []Array `toml:"array"`
	Ops         []Op    `toml:"op"`
}

// LoadFile reads and parses path.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data; errors are prefixed with path.
func Parse(path string, data []byte) (*Script, error) {
	var s Script
	meta, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("name") || strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("%s: missing name", path)
	}
	s.Path = path
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Array returns the declaration of name.
func (s *Script) Array(name string) (*Array, bool) {
	for i := range s.Arrays {
		if s.Arrays[i].Name == name {
			return &s.Arrays[i], true
		}
	}
	return nil, false
}

// RegionID returns the script's region override, if any.
func (s *Script) RegionID() (region.ID, bool) {
	if s.Region == "" {
		return region.NoRegion, false
	}
	id, err := region.ParseID(s.Region)
	return id, err == nil
}

func (s *Script) validate() error {
	var errs []error
	if s.Region != "" {
		if _, err := region.ParseID(s.Region); err != nil {
			errs = append(errs, err)
		}
	}
	seen := make(map[string]bool, len(s.Arrays))
	for i, a := range s.Arrays {
		where := fmt.Sprintf("array[%d]", i)
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
			continue
		}
		where = fmt.Sprintf("array %q", a.Name)
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("%s: declared twice", where))
		}
		seen[a.Name] = true
		if a.Kind != KnownSize && a.Kind != UnknownSize {
			errs = append(errs, fmt.Errorf("%s: kind must be known or unknown, got %q", where, a.Kind))
		}
		switch a.Elem {
		case ElemInt, ElemBox:
		case ElemBool:
			for _, v := range a.Values {
				if v != 0 && v != 1 {
					errs = append(errs, fmt.Errorf("%s: bool values must be 0 or 1, got %d", where, v))
					break
				}
			}
		default:
			errs = append(errs, fmt.Errorf("%s: elem must be int, bool or box, got %q", where, a.Elem))
		}
	}
	for i, op := range s.Ops {
		where := fmt.Sprintf("op[%d] (%s)", i, op.Kind)
		if !op.Kind.valid() {
			errs = append(errs, fmt.Errorf("op[%d]: unknown kind %q", i, op.Kind))
			continue
		}
		if !seen[op.Array] {
			errs = append(errs, fmt.Errorf("%s: unknown array %q", where, op.Array))
		}
		if op.Kind.needsIndex() && op.Index == nil {
			errs = append(errs, fmt.Errorf("%s: missing index", where))
		}
		if op.Kind.needsValue() && op.Value == nil {
			errs = append(errs, fmt.Errorf("%s: missing value", where))
		}
		if a, ok := s.Array(op.Array); ok && a.Elem == ElemBool && op.Value != nil && *op.Value != 0 && *op.Value != 1 {
			errs = append(errs, fmt.Errorf("%s: bool value must be 0 or 1", where))
		}
	}
	return errors.Join(errs...)
}
