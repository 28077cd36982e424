package analysis

import (
	"sort"
	"strings"

	"jsastad/internal/parser"
)

// TypeKind categorizes a resolved type.
type TypeKind int

const (
	KindUnknown TypeKind = iota
	KindPrimitive
	KindVoid
	KindStruct
	KindFunction
)

// Type is a resolved JSasta type. Types are interned per analysis pass for
// primitives and structs; equality checks go through Key which is structural.
type Type struct {
	Kind TypeKind
	Name string // primitive name or struct name

	// Struct types
	Fields []*Field

	// Function types
	Params   []*Type // nil entries for generic (unannotated) parameters
	Return   *Type
	Variadic bool
}

// Field is one member of a struct type, carrying the declaration span used
// for go-to-definition.
type Field struct {
	Name     string
	Type     *Type
	DeclSpan parser.Span
}

var (
	typeUnknown = &Type{Kind: KindUnknown, Name: "unknown"}
	typeVoid    = &Type{Kind: KindVoid, Name: "void"}
)

// Unknown is the explicit marker for unresolved expressions; inference never
// fails outright, it propagates this instead.
func Unknown() *Type { return typeUnknown }

// Void is the type of statements and functions without a return value.
func Void() *Type { return typeVoid }

var primitiveNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"int": true, "bool": true, "string": true,
	"f32": true, "f64": true,
}

var primitives = func() map[string]*Type {
	m := make(map[string]*Type, len(primitiveNames))
	for name := range primitiveNames {
		m[name] = &Type{Kind: KindPrimitive, Name: name}
	}
	return m
}()

// Primitive returns the interned primitive type for a name, or nil if the
// name is not primitive.
func Primitive(name string) *Type {
	return primitives[name]
}

// IsUnknown reports whether t is absent or the unknown marker.
func IsUnknown(t *Type) bool {
	return t == nil || t.Kind == KindUnknown
}

// Key returns a canonical structural key for the type. Two types with equal
// keys are interchangeable; specialization caching relies on this being
// structural rather than identity-based.
func (t *Type) Key() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case KindPrimitive, KindVoid, KindUnknown:
		return t.Name
	case KindStruct:
		var sb strings.Builder
		sb.WriteString("struct ")
		sb.WriteString(t.Name)
		sb.WriteByte('{')
		fields := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, f.Name+":"+f.Type.Key())
		}
		sort.Strings(fields)
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('}')
		return sb.String()
	case KindFunction:
		var sb strings.Builder
		sb.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(p.Key())
		}
		if t.Variadic {
			sb.WriteString(",...")
		}
		sb.WriteByte(')')
		if t.Return != nil {
			sb.WriteString(t.Return.Key())
		}
		return sb.String()
	default:
		return "unknown"
	}
}

// String renders the type the way annotations are written.
func (t *Type) String() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case KindStruct:
		return t.Name
	case KindFunction:
		var sb strings.Builder
		sb.WriteString("function(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		if t.Variadic {
			sb.WriteString(", ...")
		}
		sb.WriteByte(')')
		if t.Return != nil && t.Return.Kind != KindVoid {
			sb.WriteString(": " + t.Return.String())
		}
		return sb.String()
	default:
		return t.Name
	}
}

// Field looks up a struct member by name.
func (t *Type) Field(name string) *Field {
	if t == nil || t.Kind != KindStruct {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// assignable reports whether a value of type `from` can be used where `to`
// is expected. Unknown types are permissive so one error does not cascade.
// Integer values fit any integer annotation and promote to floats; a float
// never narrows to an integer.
func assignable(to, from *Type) bool {
	if IsUnknown(to) || IsUnknown(from) {
		return true
	}
	if to.Key() == from.Key() {
		return true
	}
	if isInteger(from) && isNumeric(to) {
		return true
	}
	if isFloat(from) && isFloat(to) {
		return true
	}
	return false
}

// isNumeric reports whether the type supports arithmetic.
func isNumeric(t *Type) bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	switch t.Name {
	case "bool", "string":
		return false
	default:
		return true
	}
}

func isInteger(t *Type) bool {
	return isNumeric(t) && !isFloat(t)
}

func isFloat(t *Type) bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	return t.Name == "f32" || t.Name == "f64"
}
