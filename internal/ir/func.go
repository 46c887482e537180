package ir

import "fmt"

// BlockID indexes Func.Blocks.
type BlockID int32

// Block is a basic block.
type Block struct {
	ID     BlockID
	Name   string
	Instrs []Instr
	Term   Terminator
}

// Terminated reports whether the block already has a terminator.
func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}

// Param is a function parameter.
type Param struct {
	Name string
	Type *Type
}

// Func is one function's instruction stream.
type Func struct {
	Name   string
	Params []Param
	Result *Type
	Blocks []Block
	Entry  BlockID

	nextValue int
	allocas   int
	names     map[int]string
}

// NewFunc creates a function with an empty entry block.
func NewFunc(name string, result *Type, params ...Param) *Func {
	if result == nil {
		result = Void
	}
	f := &Func{
		Name:   name,
		Params: params,
		Result: result,
		names:  make(map[int]string, 32),
	}
	f.addBlock("entry")
	return f
}

func (f *Func) addBlock(name string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, Block{ID: id, Name: name})
	return id
}

func (f *Func) newValue(t *Type, name string) Value {
	f.nextValue++
	if name != "" {
		f.names[f.nextValue] = name
	}
	return Value{Kind: ValueInstr, ID: f.nextValue, Type: t}
}

// Block returns the block with the given id.
func (f *Func) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// ValueName returns the name hint recorded for an instruction result.
func (f *Func) ValueName(id int) string {
	return f.names[id]
}

// Param returns the value of parameter i.
func (f *Func) Param(i int) Value {
	if i < 0 || i >= len(f.Params) {
		return Value{}
	}
	return Value{Kind: ValueParam, ID: i, Type: f.Params[i].Type}
}

// Module groups functions and the named struct types they use.
type Module struct {
	Name    string
	Structs []*Type
	Funcs   []*Func
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddFunc appends f; function names are unique.
func (m *Module) AddFunc(f *Func) error {
	if m.Func(f.Name) != nil {
		return fmt.Errorf("function %q already defined", f.Name)
	}
	m.Funcs = append(m.Funcs, f)
	return nil
}

// Func finds a function by name.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// DeclareStruct registers a named struct type once.
func (m *Module) DeclareStruct(t *Type) {
	if t == nil || t.Name == "" {
		return
	}
	for _, s := range m.Structs {
		if s.Name == t.Name {
			return
		}
	}
	m.Structs = append(m.Structs, t)
}
