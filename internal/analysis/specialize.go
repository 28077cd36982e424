package analysis

import (
	"strings"

	"jsastad/internal/parser"
)

// Specialization is one concrete instantiation of a generic function for a
// distinct argument-type tuple. The body AST is shared with the original
// declaration; what is per-specialization is the binding of parameters to
// concrete types and the expression types inferred under that binding.
// Identifier resolutions recorded while inferring a specialized body point
// at the original declarations, so navigation is stable across any number
// of specializations.
type Specialization struct {
	Func       *parser.FuncDecl
	ArgTypes   []*Type
	Return     *Type
	ExprTypes  map[parser.Expr]*Type
	inProgress bool
}

// specializationKey derives the cache key for a call site: the function
// name plus the structural keys of the concrete argument types.
func specializationKey(funcName string, args []*Type) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, funcName)
	for _, t := range args {
		parts = append(parts, t.Key())
	}
	return strings.Join(parts, "|")
}

// SpecializationSet caches specializations by structural key so two call
// sites with identical argument-type tuples share one instantiation.
type SpecializationSet struct {
	byKey map[string]*Specialization
	order []*Specialization
}

func newSpecializationSet() *SpecializationSet {
	return &SpecializationSet{byKey: make(map[string]*Specialization)}
}

// Find returns the cached specialization for the key, if any.
func (s *SpecializationSet) Find(funcName string, args []*Type) *Specialization {
	return s.byKey[specializationKey(funcName, args)]
}

func (s *SpecializationSet) add(funcName string, spec *Specialization) {
	s.byKey[specializationKey(funcName, spec.ArgTypes)] = spec
	s.order = append(s.order, spec)
}

// All returns the specializations in creation order.
func (s *SpecializationSet) All() []*Specialization {
	out := make([]*Specialization, len(s.order))
	copy(out, s.order)
	return out
}

// ForFunction returns the specializations of one function.
func (s *SpecializationSet) ForFunction(name string) []*Specialization {
	var out []*Specialization
	for _, spec := range s.order {
		if spec.Func.Name == name {
			out = append(out, spec)
		}
	}
	return out
}

// Len returns the number of cached specializations.
func (s *SpecializationSet) Len() int {
	return len(s.order)
}
