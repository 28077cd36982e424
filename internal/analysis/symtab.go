package analysis

import "jsastad/internal/parser"

// SymbolKind classifies a declaration.
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolParameter
	SymbolStruct
	SymbolField
	SymbolVariable
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolParameter:
		return "parameter"
	case SymbolStruct:
		return "struct"
	case SymbolField:
		return "field"
	case SymbolVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Symbol is one named declaration. DeclSpan is the span of the name token in
// the declaring source, the location go-to-definition answers with. For
// parameters of generic functions this always points at the original
// (unspecialized) parameter, no matter how many specializations exist.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	DeclSpan parser.Span
	Type     *Type
	Node     parser.Node
}

// Scope is one lexical scope in a chain. Lookup walks outward, so function
// parameters shadow top-level declarations.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a scope nested in parent (parent may be nil).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]*Symbol)}
}

// Insert defines a symbol in this scope. A same-name symbol in the same
// scope is replaced; redeclaration diagnostics are the caller's job.
func (s *Scope) Insert(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// Lookup resolves a name against this scope and its ancestors.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a name in this scope only.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.symbols[name]
}
