package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsastad/internal/analysis"
	"jsastad/internal/diagnostics"
	"jsastad/internal/parser"
)

func analyze(t *testing.T, src string) (*parser.Program, *analysis.Result) {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.Empty(t, diags, "fixture must parse cleanly")
	return prog, analysis.Infer(prog)
}

func diagCodes(diags []diagnostics.Diagnostic) []string {
	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestLiteralTypes(t *testing.T) {
	prog, result := analyze(t, "var a = 1;\nvar b = 1.5;\nvar c = \"x\";\nvar d = true;\n")
	require.Empty(t, result.Diagnostics)

	inits := make([]*analysis.Type, 0, 4)
	for _, decl := range prog.Decls {
		inits = append(inits, result.TypeOf(decl.(*parser.VarDecl).Init))
	}
	require.Equal(t, "int", inits[0].Name)
	require.Equal(t, "f64", inits[1].Name)
	require.Equal(t, "string", inits[2].Name)
	require.Equal(t, "bool", inits[3].Name)
}

// Integer literals adapt to sized integer annotations everywhere they can
// appear: call arguments, arithmetic operands and return values.
func TestIntLiteralAdaptsToSizedTypes(t *testing.T) {
	src := `function greet(name: string, age: i32): i32 {
	return age + 1;
}

function main(): void {
	greet("Alice", 30);
}
`
	prog, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)

	// `age + 1` keeps the sized operand's type, not the literal's.
	greet := prog.Decls[0].(*parser.FuncDecl)
	ret := greet.Body.Stmts[0].(*parser.ReturnStmt)
	require.Equal(t, "i32", result.TypeOf(ret.Value).Name)
}

func TestIntPromotesToFloatButNeverNarrows(t *testing.T) {
	src := `var x: f64 = 1;
var y = x + 2;
var z: i32 = 1.5;
`
	prog, result := analyze(t, src)

	// Only the float-to-integer initialization is rejected.
	require.Equal(t, []string{"type-mismatch"}, diagCodes(result.Diagnostics))

	y := prog.Decls[1].(*parser.VarDecl)
	require.Equal(t, "f64", result.TypeOf(y.Init).Name)
}

func TestStructMemberAccess(t *testing.T) {
	src := `struct Person {
	name: string;
	age: i32;
}

function describe(p: Person): string {
	return p.name;
}
`
	_, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)

	// Every resolved member access carries the field symbol with the
	// declaration span inside the struct body.
	require.Len(t, result.Members, 1)
	for _, sym := range result.Members {
		require.Equal(t, "name", sym.Name)
		require.Equal(t, analysis.SymbolField, sym.Kind)
		require.Equal(t, uint32(1), sym.DeclSpan.Start.Line)
	}
}

func TestUnknownMember(t *testing.T) {
	src := `struct Person {
	name: string;
}

function f(p: Person): string {
	return p.email;
}
`
	_, result := analyze(t, src)
	require.Contains(t, diagCodes(result.Diagnostics), "unknown-member")
}

// One specialization per distinct argument-type tuple; a repeated tuple
// reuses the cached specialization.
func TestSpecializationPerTypeTuple(t *testing.T) {
	src := `function add(a, b) {
	return a + b;
}

function main(): void {
	add(1, 2);
	add(1.5, 2.5);
	add(3, 4);
}
`
	_, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)
	require.Equal(t, 2, result.Specs.Len())

	intSpec := result.Specs.Find("add", []*analysis.Type{
		analysis.Primitive("int"), analysis.Primitive("int"),
	})
	require.NotNil(t, intSpec)
	require.Equal(t, "int", intSpec.Return.Name)

	floatSpec := result.Specs.Find("add", []*analysis.Type{
		analysis.Primitive("f64"), analysis.Primitive("f64"),
	})
	require.NotNil(t, floatSpec)
	require.Equal(t, "f64", floatSpec.Return.Name)

	// Both specializations share the original body AST.
	require.Same(t, intSpec.Func, floatSpec.Func)
}

// An annotated parameter of a generic function constrains the argument and
// pins the specialization key, so an integer literal adapts to the
// annotation instead of forking a second specialization.
func TestAnnotatedParamConstrainsSpecialization(t *testing.T) {
	src := `function scale(v, factor: i32) {
	return v;
}

function main(): void {
	scale(1.5, 30);
}
`
	_, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)
	require.Equal(t, 1, result.Specs.Len())

	spec := result.Specs.All()[0]
	require.Equal(t, "f64", spec.ArgTypes[0].Name)
	require.Equal(t, "i32", spec.ArgTypes[1].Name)
}

func TestGenericCallArgumentMismatch(t *testing.T) {
	src := `function scale(v, factor: i32) {
	return v;
}

function main(): void {
	scale(1, "x");
}
`
	_, result := analyze(t, src)
	require.Contains(t, diagCodes(result.Diagnostics), "call-mismatch")
	require.Equal(t, 0, result.Specs.Len())
}

func TestTypedCallChecks(t *testing.T) {
	src := `function inc(x: i32): i32 {
	return x + 1;
}

function main(): void {
	inc(1, 2);
	inc("no");
}
`
	_, result := analyze(t, src)
	codes := diagCodes(result.Diagnostics)
	require.Equal(t, []string{"call-mismatch", "call-mismatch"}, codes)
}

func TestVariadicExternalArity(t *testing.T) {
	src := `external function printf(fmt: string, ...): void;

function main(): void {
	printf("a");
	printf("b", 1, 2, 3);
	printf();
}
`
	_, result := analyze(t, src)
	// Only the zero-argument call misses the required fixed parameter.
	codes := diagCodes(result.Diagnostics)
	require.Equal(t, []string{"call-mismatch"}, codes)
}

func TestReturnTypeInferred(t *testing.T) {
	src := `function one(): i32 {
	return 1;
}

function two() {
	return one();
}

var x = two();
`
	prog, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)

	decl := prog.Decls[2].(*parser.VarDecl)
	require.Equal(t, "i32", result.TypeOf(decl.Init).Name)
}

func TestReturnMismatch(t *testing.T) {
	src := `function confused(flag: bool): i32 {
	if (flag) {
		return 1;
	}
	return "no";
}
`
	_, result := analyze(t, src)
	require.Contains(t, diagCodes(result.Diagnostics), "return-mismatch")
}

func TestRecursiveGenericTerminates(t *testing.T) {
	src := `function count(n) {
	if (n > 0) {
		count(n - 1);
	}
	return n;
}

var total = count(10);
`
	prog, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)
	require.Equal(t, 1, result.Specs.Len())

	decl := prog.Decls[1].(*parser.VarDecl)
	require.Equal(t, "int", result.TypeOf(decl.Init).Name)
}

func TestUnresolvedIdentifier(t *testing.T) {
	_, result := analyze(t, "var x = nope;\n")
	require.Contains(t, diagCodes(result.Diagnostics), "unresolved-identifier")
}

func TestDuplicateDeclarations(t *testing.T) {
	src := `struct A {
	x: i32;
	x: i32;
}

struct A {
}

function f(): void {
}

function f(): void {
}
`
	_, result := analyze(t, src)
	codes := diagCodes(result.Diagnostics)
	count := 0
	for _, code := range codes {
		if code == "duplicate-declaration" {
			count++
		}
	}
	require.Equal(t, 3, count)
}

func TestConditionMustBeBool(t *testing.T) {
	src := `function f(): void {
	if (1) {
	}
}
`
	_, result := analyze(t, src)
	require.Contains(t, diagCodes(result.Diagnostics), "type-mismatch")
}

func TestUntypedVariableWarning(t *testing.T) {
	_, result := analyze(t, "var x;\n")
	require.Len(t, result.Diagnostics, 1)
	require.Equal(t, "untyped-variable", result.Diagnostics[0].Code)
	require.Equal(t, diagnostics.SeverityWarning, result.Diagnostics[0].Severity)
}

// Uncalled generic functions still get their identifiers resolved so
// navigation works inside them, without emitting speculative diagnostics.
func TestUncalledGenericBodyResolves(t *testing.T) {
	src := `function lonely(x) {
	return x;
}
`
	prog, result := analyze(t, src)
	require.Empty(t, result.Diagnostics)
	require.Equal(t, 0, result.Specs.Len())

	fn := prog.Decls[0].(*parser.FuncDecl)
	ret := fn.Body.Stmts[0].(*parser.ReturnStmt)
	ident := ret.Value.(*parser.Ident)
	sym, ok := result.Resolutions[ident]
	require.True(t, ok, "parameter use inside an uncalled generic body must resolve")
	require.Equal(t, analysis.SymbolParameter, sym.Kind)
	require.Equal(t, fn.Params[0].NameSpan, sym.DeclSpan)
}

func TestTypeKeyStructural(t *testing.T) {
	a := &analysis.Type{Kind: analysis.KindStruct, Name: "P", Fields: []*analysis.Field{
		{Name: "b", Type: analysis.Primitive("i32")},
		{Name: "a", Type: analysis.Primitive("string")},
	}}
	b := &analysis.Type{Kind: analysis.KindStruct, Name: "P", Fields: []*analysis.Field{
		{Name: "a", Type: analysis.Primitive("string")},
		{Name: "b", Type: analysis.Primitive("i32")},
	}}
	require.Equal(t, a.Key(), b.Key(), "field order must not affect the structural key")
}
