// macro.go: macro definitions, the macro table, and hide sets.
package pp

import "sort"

// Macro is either an ObjectMacro or a FunctionMacro. The directive layer
// builds them; the expander only reads them.
type Macro interface {
	isMacro()
}

// ObjectMacro is a macro defined without a parameter list. Invocation is
// the bare identifier.
type ObjectMacro struct {
	Body []Token
}

// FunctionMacro is a macro defined with a parameter list. Invocation
// requires a parenthesized argument list. When Variadic is set, arguments
// beyond the named parameters are bound — commas included — to __VA_ARGS__.
type FunctionMacro struct {
	Params   []string
	Variadic bool
	Body     []Token
}

func (ObjectMacro) isMacro()   {}
func (FunctionMacro) isMacro() {}

// VariadicParamName is the identifier variadic surplus arguments bind to.
const VariadicParamName = "__VA_ARGS__"

// paramIndex returns the position of name in the parameter list, treating
// __VA_ARGS__ as a parameter of variadic macros.
func (m FunctionMacro) paramIndex(name string) (int, bool) {
	for i, p := range m.Params {
		if p == name {
			return i, true
		}
	}
	if m.Variadic && name == VariadicParamName {
		return len(m.Params), true
	}
	return 0, false
}

// Macros is the identifier-keyed macro table. The directive layer inserts
// and removes definitions between expansions; during a single expander Next
// call the table is read-only.
type Macros struct {
	definitions map[string]Macro
}

// NewMacros returns an empty macro table.
func NewMacros() *Macros {
	return &Macros{definitions: make(map[string]Macro)}
}

// Define inserts or replaces a definition.
func (m *Macros) Define(name string, def Macro) {
	m.definitions[name] = def
}

// Undef removes a definition. Removing an unknown name is a no-op, matching
// #undef semantics.
func (m *Macros) Undef(name string) {
	delete(m.definitions, name)
}

// Lookup returns the definition for name, if any.
func (m *Macros) Lookup(name string) (Macro, bool) {
	def, ok := m.definitions[name]
	return def, ok
}

// Names returns the defined names, sorted.
func (m *Macros) Names() []string {
	names := make([]string, 0, len(m.definitions))
	for name := range m.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the table. Definitions are shared;
// they are never mutated in place.
func (m *Macros) Clone() *Macros {
	c := NewMacros()
	for name, def := range m.definitions {
		c.definitions[name] = def
	}
	return c
}

// A hideSet is the set of macro names whose expansion produced a given
// token. A token whose hide set contains name M is never re-expanded as an
// invocation of M, which is what stops #define A A — and every indirect
// cycle — from recursing forever while still letting M be invoked again
// later in the stream. Hide sets travel per token: pasted pieces from
// different expansion contexts can carry different sets side by side in the
// pending queue.
//
// hideSets are treated as immutable: with and union return new sets, so
// tokens sharing a set by reference stay safe.
type hideSet map[string]struct{}

func (h hideSet) contains(name string) bool {
	_, ok := h[name]
	return ok
}

// with returns h ∪ {name}.
func (h hideSet) with(name string) hideSet {
	out := make(hideSet, len(h)+1)
	for k := range h {
		out[k] = struct{}{}
	}
	out[name] = struct{}{}
	return out
}

func (h hideSet) union(other hideSet) hideSet {
	if len(other) == 0 {
		return h
	}
	if len(h) == 0 {
		return other
	}
	out := make(hideSet, len(h)+len(other))
	for k := range h {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (h hideSet) intersect(other hideSet) hideSet {
	out := make(hideSet)
	for k := range h {
		if other.contains(k) {
			out[k] = struct{}{}
		}
	}
	return out
}
