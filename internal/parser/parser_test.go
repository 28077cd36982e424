package parser_test

import (
	"strings"
	"testing"

	"jsastad/internal/parser"
)

// A small but representative document: a struct, an external declaration and
// two functions, one generic.
var content = `struct Person {
	name: string;
	age: i32;
}

external function printf(fmt: string, ...): void;

function greet(p: Person): string {
	return "hello " + p.name;
}

function identity(x) {
	return x;
}
`

func TestParseProgram(t *testing.T) {
	prog, diags := parser.Parse(content)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(prog.Decls) != 4 {
		t.Fatalf("expected 4 declarations, got %d", len(prog.Decls))
	}

	st, ok := prog.Decls[0].(*parser.StructDecl)
	if !ok {
		t.Fatalf("expected struct declaration, got %T", prog.Decls[0])
	}
	if st.Name != "Person" || len(st.Members) != 2 {
		t.Fatalf("unexpected struct: %s with %d members", st.Name, len(st.Members))
	}
	if st.Members[0].Name != "name" || st.Members[0].Type.Name != "string" {
		t.Fatalf("unexpected first member: %s: %v", st.Members[0].Name, st.Members[0].Type)
	}

	ext, ok := prog.Decls[1].(*parser.FuncDecl)
	if !ok || !ext.External {
		t.Fatalf("expected external function, got %T", prog.Decls[1])
	}
	if !ext.Variadic {
		t.Fatal("expected printf to be variadic")
	}
	if len(ext.Params) != 1 || ext.Params[0].Type == nil {
		t.Fatalf("unexpected external params: %v", ext.Params)
	}
	if ext.Generic() {
		t.Fatal("external declarations are never generic")
	}

	greet := prog.Decls[2].(*parser.FuncDecl)
	if greet.Generic() {
		t.Fatal("greet has fully annotated parameters, must not be generic")
	}
	if greet.Return == nil || greet.Return.Name != "string" {
		t.Fatalf("unexpected return annotation: %v", greet.Return)
	}

	identity := prog.Decls[3].(*parser.FuncDecl)
	if !identity.Generic() {
		t.Fatal("identity has an unannotated parameter, must be generic")
	}
}

func TestNameSpans(t *testing.T) {
	prog, diags := parser.Parse("function main(): void {\n}\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	fn := prog.Decls[0].(*parser.FuncDecl)
	want := parser.Span{
		Start: parser.Position{Line: 0, Character: 9},
		End:   parser.Position{Line: 0, Character: 13},
	}
	if fn.NameSpan != want {
		t.Fatalf("expected name span %v, got %v", want, fn.NameSpan)
	}
}

// An unterminated struct must not swallow the rest of the file: the
// following function still parses and the struct keeps the members seen so
// far.
func TestUnterminatedStructRecovery(t *testing.T) {
	src := `struct Broken {
	name: string;

function after(): void {
}
`
	prog, diags := parser.Parse(src)

	if len(diags) == 0 {
		t.Fatal("expected diagnostics for the unterminated struct")
	}
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "unterminated struct") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unterminated struct diagnostic, got %v", diags)
	}

	var st *parser.StructDecl
	var fn *parser.FuncDecl
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *parser.StructDecl:
			st = d
		case *parser.FuncDecl:
			fn = d
		}
	}
	if st == nil || st.Name != "Broken" || len(st.Members) != 1 {
		t.Fatalf("struct not recovered: %+v", st)
	}
	if fn == nil || fn.Name != "after" {
		t.Fatal("declaration after the broken struct was lost")
	}
}

func TestVariadicOnlyOnExternal(t *testing.T) {
	_, diags := parser.Parse("function f(a, ...): void {\n}\n")
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for variadic marker on a non-external function")
	}
}

func TestExternalParamRequiresAnnotation(t *testing.T) {
	_, diags := parser.Parse("external function f(a): void;\n")
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for an unannotated external parameter")
	}
}

func TestExpressionPrecedence(t *testing.T) {
	prog, diags := parser.Parse("var x = 1 + 2 * 3;\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	decl := prog.Decls[0].(*parser.VarDecl)
	add, ok := decl.Init.(*parser.BinaryExpr)
	if !ok || add.Op != parser.PLUS {
		t.Fatalf("expected + at the root, got %#v", decl.Init)
	}
	mul, ok := add.R.(*parser.BinaryExpr)
	if !ok || mul.Op != parser.STAR {
		t.Fatalf("expected * on the right of +, got %#v", add.R)
	}
}

func TestFloatLiteralDetection(t *testing.T) {
	prog, diags := parser.Parse("var a = 1.5;\nvar b = 42;\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	a := prog.Decls[0].(*parser.VarDecl).Init.(*parser.NumberLit)
	b := prog.Decls[1].(*parser.VarDecl).Init.(*parser.NumberLit)
	if !a.IsFloat {
		t.Fatalf("1.5 must be a float literal")
	}
	if b.IsFloat {
		t.Fatalf("42 must be an integer literal")
	}
}

// Garbage input never panics and always leaves the parser at EOF with
// diagnostics to show for it.
func TestMalformedInputMakesProgress(t *testing.T) {
	inputs := []string{
		"@@@",
		"function",
		"struct {",
		"var = ;",
		"if (x {",
		"\"unterminated",
		"/* unterminated comment",
	}
	for _, src := range inputs {
		prog, diags := parser.Parse(src)
		if prog == nil {
			t.Fatalf("nil program for %q", src)
		}
		if len(diags) == 0 {
			t.Fatalf("expected diagnostics for %q", src)
		}
	}
}

func TestUTF16Columns(t *testing.T) {
	// The emoji occupies two UTF-16 code units, so the literal ends at
	// character 12, not 11.
	prog, diags := parser.Parse("var s = \"😀\";\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	lit := prog.Decls[0].(*parser.VarDecl).Init.(*parser.StringLit)
	if lit.Loc.End.Character != 12 {
		t.Fatalf("expected string literal to end at character 12, got %d", lit.Loc.End.Character)
	}
}
