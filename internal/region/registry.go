package region

import (
	"fmt"

	"tessera/internal/ir"
	"tessera/internal/types"
)

// Registry maps semantic types to their owning regions and translates
// them into low-level types.
type Registry struct {
	types     *types.Interner
	def       ID
	regions   map[ID]ReferenceValidator
	overrides map[types.TypeID]ID
	wrappers  map[types.TypeID]*ir.Type
	order     []types.TypeID
}

// NewRegistry creates a registry where every type belongs to def unless
// reassigned.
func NewRegistry(typesIn *types.Interner, def ID) (*Registry, error) {
	if typesIn == nil {
		return nil, fmt.Errorf("region registry requires a type interner")
	}
	r := &Registry{
		types:     typesIn,
		def:       def,
		overrides: make(map[types.TypeID]ID, 8),
		wrappers:  make(map[types.TypeID]*ir.Type, 8),
	}
	r.regions = map[ID]ReferenceValidator{
		Unsafe:    &unsafeRegion{reg: r, cb: ir.NamedStruct("cb.unsafe", ir.I64)},
		Assist:    &assistRegion{reg: r, cb: ir.NamedStruct("cb.assist", ir.I64)},
		Resilient: &resilientRegion{reg: r, cb: ir.NamedStruct("cb.resilient", ir.I64, ir.I64)},
	}
	if _, ok := r.regions[def]; !ok {
		return nil, fmt.Errorf("unknown default region %d", def)
	}
	return r, nil
}

// Types returns the interner the registry translates from.
func (r *Registry) Types() *types.Interner { return r.types }

// Default returns the region owning unassigned types.
func (r *Registry) Default() ID { return r.def }

// Assign moves referend into region id. It must happen before the type is
// first translated.
func (r *Registry) Assign(referend types.TypeID, id ID) error {
	if _, ok := r.regions[id]; !ok {
		return fmt.Errorf("unknown region %d", id)
	}
	if _, done := r.wrappers[referend]; done {
		return fmt.Errorf("type#%d already translated; cannot move it to %s", referend, id)
	}
	r.overrides[referend] = id
	return nil
}

// Region returns the validator for id.
func (r *Registry) Region(id ID) ReferenceValidator {
	return r.regions[id]
}

// RegionFor returns the region owning refType's referend.
func (r *Registry) RegionFor(refType types.Reference) ReferenceValidator {
	if id, ok := r.overrides[refType.Referend]; ok {
		return r.regions[id]
	}
	return r.regions[r.def]
}

// TranslateType returns the low-level type of a value of refType.
func (r *Registry) TranslateType(refType types.Reference) (*ir.Type, error) {
	t, ok := r.types.Lookup(refType.Referend)
	if !ok {
		return nil, fmt.Errorf("unknown type#%d", refType.Referend)
	}
	switch t.Kind {
	case types.KindInt:
		return ir.I64, nil
	case types.KindBool:
		return ir.I1, nil
	}
	if refType.Location == types.Yonder {
		w, err := r.WrapperType(refType.Referend)
		if err != nil {
			return nil, err
		}
		return ir.PtrTo(w), nil
	}
	switch t.Kind {
	case types.KindStruct:
		fields, err := r.fieldTypes(t)
		if err != nil {
			return nil, err
		}
		return ir.StructOf(fields...), nil
	case types.KindKnownSizeArray:
		elem, err := r.TranslateType(t.Elem)
		if err != nil {
			return nil, err
		}
		return ir.ArrayOf(elem, int(t.Length)), nil
	default:
		return nil, fmt.Errorf("%s cannot be stored inline", r.types.Label(refType.Referend))
	}
}

// WrapperType returns the named struct holding a yonder referend:
// control block first, then contents.
func (r *Registry) WrapperType(referend types.TypeID) (*ir.Type, error) {
	if w, ok := r.wrappers[referend]; ok {
		return w, nil
	}
	t, ok := r.types.Lookup(referend)
	if !ok {
		return nil, fmt.Errorf("unknown type#%d", referend)
	}
	cb := r.RegionFor(types.Reference{Referend: referend}).ControlBlock()
	var w *ir.Type
	switch t.Kind {
	case types.KindStruct:
		fields, err := r.fieldTypes(t)
		if err != nil {
			return nil, err
		}
		w = ir.NamedStruct(t.Name, append([]*ir.Type{cb}, fields...)...)
	case types.KindKnownSizeArray:
		elem, err := r.TranslateType(t.Elem)
		if err != nil {
			return nil, err
		}
		w = ir.NamedStruct(fmt.Sprintf("ksa.%d", referend), cb, ir.ArrayOf(elem, int(t.Length)))
	case types.KindUnknownSizeArray:
		elem, err := r.TranslateType(t.Elem)
		if err != nil {
			return nil, err
		}
		w = ir.NamedStruct(fmt.Sprintf("usa.%d", referend), cb, ir.I64, ir.ArrayOf(elem, 0))
	default:
		return nil, fmt.Errorf("%s has no wrapper", r.types.Label(referend))
	}
	r.wrappers[referend] = w
	r.order = append(r.order, referend)
	return w, nil
}

// Wrappers returns every wrapper type produced so far, control blocks
// first, for module declaration.
func (r *Registry) Wrappers() []*ir.Type {
	out := make([]*ir.Type, 0, len(r.order)+len(r.regions))
	for _, id := range []ID{Unsafe, Assist, Resilient} {
		out = append(out, r.regions[id].ControlBlock())
	}
	for _, id := range r.order {
		out = append(out, r.wrappers[id])
	}
	return out
}

func (r *Registry) fieldTypes(t types.Type) ([]*ir.Type, error) {
	out := make([]*ir.Type, 0, len(t.Fields))
	for _, f := range t.Fields {
		ft, err := r.TranslateType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out = append(out, ft)
	}
	return out, nil
}

func (r *Registry) isPointer(refType types.Reference) bool {
	t, ok := r.types.Lookup(refType.Referend)
	return ok && !t.IsPrimitive() && refType.Location == types.Yonder
}

func (r *Registry) checkStructure(loc Loc, id ID, refType types.Reference, ref Ref) error {
	if !ref.IsValid() {
		return &CheckError{Loc: loc, Region: id, Msg: "empty reference"}
	}
	if ref.declared != refType {
		return &CheckError{Loc: loc, Region: id, Msg: fmt.Sprintf("reference declared as %s checked as %s", ref.declared, refType)}
	}
	if ref.region != id {
		return &CheckError{Loc: loc, Region: id, Msg: fmt.Sprintf("reference owned by %s", ref.region)}
	}
	want, err := r.TranslateType(refType)
	if err != nil {
		return &CheckError{Loc: loc, Region: id, Msg: err.Error()}
	}
	if !ref.raw.Type.Equal(want) {
		return &CheckError{Loc: loc, Region: id, Msg: fmt.Sprintf("raw value is %s, want %s", ref.raw.Type, want)}
	}
	return nil
}
