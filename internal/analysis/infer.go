// Package analysis assigns types to JSasta syntax trees.
//
// Inference always completes: anything it cannot resolve is marked with the
// explicit unknown type and reported as a diagnostic, never a failure.
// Functions with unannotated parameters are analyzed generically and
// specialized per call site; see specialize.go.
package analysis

import (
	"fmt"

	"jsastad/internal/diagnostics"
	"jsastad/internal/parser"
)

// Result is the outcome of one inference pass over one syntax tree. All maps
// key on the identity of nodes in that tree.
type Result struct {
	// Resolutions maps identifier occurrences to the declaration they
	// resolve to. Identifiers absent from the map are unresolved.
	Resolutions map[*parser.Ident]*Symbol
	// Members maps member-access occurrences to the struct field they
	// resolve to.
	Members map[*parser.MemberExpr]*Symbol
	// ExprTypes holds the types inferred outside specialized bodies.
	// Specialized bodies carry their own maps (Specialization.ExprTypes).
	ExprTypes map[parser.Expr]*Type
	// Specs is the specialization cache for this pass.
	Specs *SpecializationSet
	// Diagnostics are the type findings, in discovery order.
	Diagnostics []diagnostics.Diagnostic
}

// TypeOf returns the inferred type of an expression from the main pass, or
// the unknown marker.
func (r *Result) TypeOf(x parser.Expr) *Type {
	if t, ok := r.ExprTypes[x]; ok {
		return t
	}
	return Unknown()
}

type funcInfo struct {
	decl         *parser.FuncDecl
	sym          *Symbol
	bodyInferred bool
	inProgress   bool
}

type inferencer struct {
	diags   *diagnostics.List
	result  *Result
	globals *Scope
	funcs   map[string]*funcInfo
	structs map[string]*Type

	// types receives expression types for the pass currently running; it is
	// swapped to a specialization's own map while its body is inferred.
	types map[parser.Expr]*Type

	// returns collects the types of return statements of the function body
	// currently being inferred (nil outside function bodies).
	returns *[]*Type
}

// Infer runs symbol collection, type inference and call-site specialization
// over a parsed program.
func Infer(prog *parser.Program) *Result {
	in := &inferencer{
		diags:   &diagnostics.List{},
		globals: NewScope(nil),
		funcs:   make(map[string]*funcInfo),
		structs: make(map[string]*Type),
	}
	in.result = &Result{
		Resolutions: make(map[*parser.Ident]*Symbol),
		Members:     make(map[*parser.MemberExpr]*Symbol),
		ExprTypes:   make(map[parser.Expr]*Type),
		Specs:       newSpecializationSet(),
	}
	in.types = in.result.ExprTypes

	in.collect(prog)

	// Top-level statements run against the document scope, in order.
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *parser.StructDecl:
			// Collected already.
		case *parser.FuncDecl:
			if !d.Generic() && !d.External {
				in.inferFuncBody(in.funcs[d.Name])
			}
		default:
			in.inferStmt(decl, in.globals)
		}
	}

	// Generic functions nobody called still get their bodies resolved so
	// navigation inside them works; parameters bind to the unknown type.
	for _, fi := range in.funcs {
		if fi.decl.Generic() && len(in.result.Specs.ForFunction(fi.decl.Name)) == 0 {
			in.inferGenericFallback(fi)
		}
	}

	in.result.Diagnostics = in.diags.Items()
	return in.result
}

// collect hoists struct, function and external declarations into the
// document scope. Struct types are registered before their fields resolve so
// members can refer to other structs regardless of order.
func (in *inferencer) collect(prog *parser.Program) {
	var structDecls []*parser.StructDecl

	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *parser.StructDecl:
			if _, exists := in.structs[d.Name]; exists {
				in.diags.Errorf(d.NameSpan.Range(), "duplicate-declaration",
					"struct %q is already declared", d.Name)
				continue
			}
			t := &Type{Kind: KindStruct, Name: d.Name}
			in.structs[d.Name] = t
			in.globals.Insert(&Symbol{
				Name:     d.Name,
				Kind:     SymbolStruct,
				DeclSpan: d.NameSpan,
				Type:     t,
				Node:     d,
			})
			structDecls = append(structDecls, d)

		case *parser.FuncDecl:
			if prev := in.globals.LookupLocal(d.Name); prev != nil {
				in.diags.Errorf(d.NameSpan.Range(), "duplicate-declaration",
					"%q is already declared", d.Name)
			}
			sym := &Symbol{
				Name:     d.Name,
				Kind:     SymbolFunction,
				DeclSpan: d.NameSpan,
				Node:     d,
			}
			in.globals.Insert(sym)
			in.funcs[d.Name] = &funcInfo{decl: d, sym: sym}
		}
	}

	// Fields resolve in a second pass, now that every struct name is known.
	for _, d := range structDecls {
		t := in.structs[d.Name]
		for _, m := range d.Members {
			fieldType := Unknown()
			if m.Type != nil {
				fieldType = in.resolveTypeRef(m.Type)
			}
			if t.Field(m.Name) != nil {
				in.diags.Errorf(m.NameSpan.Range(), "duplicate-declaration",
					"struct %q already has a member %q", d.Name, m.Name)
				continue
			}
			t.Fields = append(t.Fields, &Field{
				Name:     m.Name,
				Type:     fieldType,
				DeclSpan: m.NameSpan,
			})
		}
	}

	// Function signatures resolve after structs so parameters can be struct
	// typed. Unannotated parameters stay nil; that is what marks a function
	// generic.
	for _, fi := range in.funcs {
		d := fi.decl
		ft := &Type{Kind: KindFunction, Variadic: d.Variadic}
		for _, p := range d.Params {
			if p.Type != nil {
				ft.Params = append(ft.Params, in.resolveTypeRef(p.Type))
			} else {
				ft.Params = append(ft.Params, nil)
			}
		}
		if d.Return != nil {
			ft.Return = in.resolveTypeRef(d.Return)
		} else if d.External {
			ft.Return = Void()
		}
		fi.sym.Type = ft
	}
}

// resolveTypeRef maps a written type name to a type, reporting unknown names.
func (in *inferencer) resolveTypeRef(ref *parser.TypeRef) *Type {
	if ref == nil {
		return Unknown()
	}
	if ref.Name == "void" {
		return Void()
	}
	if t := Primitive(ref.Name); t != nil {
		return t
	}
	if t, ok := in.structs[ref.Name]; ok {
		return t
	}
	in.diags.Errorf(ref.Loc.Range(), "unknown-type", "unknown type %q", ref.Name)
	return Unknown()
}

// inferFuncBody type-checks a non-generic function body once, memoized. The
// inferred return type is written back into the function's signature.
func (in *inferencer) inferFuncBody(fi *funcInfo) {
	if fi == nil || fi.bodyInferred || fi.inProgress || fi.decl.Body == nil {
		return
	}
	fi.inProgress = true
	defer func() { fi.inProgress = false; fi.bodyInferred = true }()

	// Non-generic bodies always record into the main pass map, even when
	// reached on demand from inside another body.
	prevTypes := in.types
	in.types = in.result.ExprTypes
	defer func() { in.types = prevTypes }()

	scope := NewScope(in.globals)
	for i, p := range fi.decl.Params {
		scope.Insert(&Symbol{
			Name:     p.Name,
			Kind:     SymbolParameter,
			DeclSpan: p.NameSpan,
			Type:     fi.sym.Type.Params[i],
			Node:     p,
		})
	}

	ret := in.inferBody(fi.decl.Body, scope, fi.decl)
	if fi.decl.Return == nil {
		fi.sym.Type.Return = ret
	}
}

// inferBody walks a function body collecting return statement types and
// returns the unified return type.
func (in *inferencer) inferBody(body *parser.BlockStmt, scope *Scope, decl *parser.FuncDecl) *Type {
	var returns []*Type
	prev := in.returns
	in.returns = &returns
	defer func() { in.returns = prev }()

	for _, stmt := range body.Stmts {
		in.inferStmt(stmt, scope)
	}

	declared := (*Type)(nil)
	if decl.Return != nil {
		declared = in.resolveTypeRef(decl.Return)
	}

	unified := Void()
	for _, rt := range returns {
		if unified.Kind == KindVoid {
			unified = rt
			continue
		}
		if !assignable(unified, rt) && !assignable(rt, unified) {
			in.diags.Errorf(decl.NameSpan.Range(), "return-mismatch",
				"function %q returns both %s and %s", decl.Name, unified, rt)
			unified = Unknown()
			break
		}
	}

	if declared != nil {
		if len(returns) > 0 && !IsUnknown(declared) && !assignable(declared, unified) {
			in.diags.Errorf(decl.NameSpan.Range(), "return-mismatch",
				"function %q declares return type %s but returns %s", decl.Name, declared, unified)
		}
		return declared
	}
	return unified
}

func (in *inferencer) inferStmt(stmt parser.Stmt, scope *Scope) {
	switch s := stmt.(type) {
	case *parser.VarDecl:
		var declared *Type
		if s.Type != nil {
			declared = in.resolveTypeRef(s.Type)
		}
		var initType *Type
		if s.Init != nil {
			initType = in.inferExpr(s.Init, scope)
		}
		t := Unknown()
		switch {
		case declared != nil:
			t = declared
			if initType != nil && !assignable(declared, initType) {
				in.diags.Errorf(s.Init.Span().Range(), "type-mismatch",
					"cannot initialize %q of type %s with %s", s.Name, declared, initType)
			}
		case initType != nil:
			t = initType
		default:
			in.diags.Warningf(s.NameSpan.Range(), "untyped-variable",
				"variable %q has neither a type annotation nor an initializer", s.Name)
		}
		scope.Insert(&Symbol{
			Name:     s.Name,
			Kind:     SymbolVariable,
			DeclSpan: s.NameSpan,
			Type:     t,
			Node:     s,
		})

	case *parser.ExprStmt:
		in.inferExpr(s.X, scope)

	case *parser.ReturnStmt:
		t := Void()
		if s.Value != nil {
			t = in.inferExpr(s.Value, scope)
		}
		if in.returns == nil {
			in.diags.Errorf(s.Loc.Range(), "misplaced-return",
				"return statement outside of a function body")
			return
		}
		if s.Value != nil {
			*in.returns = append(*in.returns, t)
		}

	case *parser.BlockStmt:
		inner := NewScope(scope)
		for _, st := range s.Stmts {
			in.inferStmt(st, inner)
		}

	case *parser.IfStmt:
		in.condition(s.Cond, scope)
		in.inferStmt(s.Then, scope)
		if s.Else != nil {
			in.inferStmt(s.Else, scope)
		}

	case *parser.WhileStmt:
		in.condition(s.Cond, scope)
		in.inferStmt(s.Body, scope)

	case *parser.ForStmt:
		inner := NewScope(scope)
		if s.Init != nil {
			in.inferStmt(s.Init, inner)
		}
		if s.Cond != nil {
			in.condition(s.Cond, inner)
		}
		if s.Post != nil {
			in.inferExpr(s.Post, inner)
		}
		in.inferStmt(s.Body, inner)

	case *parser.FuncDecl:
		// Nested function declarations are not part of the language; the
		// parser only produces them at top level.

	case *parser.BreakStmt, *parser.ContinueStmt, *parser.StructDecl, *parser.BadStmt:
		// Nothing to infer.
	}
}

func (in *inferencer) condition(cond parser.Expr, scope *Scope) {
	t := in.inferExpr(cond, scope)
	if !IsUnknown(t) && (t.Kind != KindPrimitive || t.Name != "bool") {
		in.diags.Errorf(cond.Span().Range(), "type-mismatch",
			"condition must be bool, found %s", t)
	}
}

func (in *inferencer) inferExpr(x parser.Expr, scope *Scope) *Type {
	t := in.inferExprUncached(x, scope)
	in.types[x] = t
	return t
}

func (in *inferencer) inferExprUncached(x parser.Expr, scope *Scope) *Type {
	switch e := x.(type) {
	case *parser.NumberLit:
		if e.IsFloat {
			return Primitive("f64")
		}
		return Primitive("int")

	case *parser.StringLit:
		return Primitive("string")

	case *parser.BoolLit:
		return Primitive("bool")

	case *parser.Ident:
		sym := scope.Lookup(e.Name)
		if sym == nil {
			in.diags.Errorf(e.Loc.Range(), "unresolved-identifier",
				"unresolved identifier %q", e.Name)
			return Unknown()
		}
		in.result.Resolutions[e] = sym
		if sym.Type == nil {
			return Unknown()
		}
		return sym.Type

	case *parser.MemberExpr:
		base := in.inferExpr(e.X, scope)
		if IsUnknown(base) {
			return Unknown()
		}
		if base.Kind != KindStruct {
			in.diags.Errorf(e.MemberSpan.Range(), "unknown-member",
				"type %s has no members", base)
			return Unknown()
		}
		field := base.Field(e.Member)
		if field == nil {
			in.diags.Errorf(e.MemberSpan.Range(), "unknown-member",
				"struct %q has no member %q", base.Name, e.Member)
			return Unknown()
		}
		in.result.Members[e] = &Symbol{
			Name:     field.Name,
			Kind:     SymbolField,
			DeclSpan: field.DeclSpan,
			Type:     field.Type,
		}
		return field.Type

	case *parser.CallExpr:
		return in.inferCall(e, scope)

	case *parser.AssignExpr:
		target := in.inferExpr(e.Target, scope)
		value := in.inferExpr(e.Value, scope)
		if !assignable(target, value) {
			in.diags.Errorf(e.Value.Span().Range(), "type-mismatch",
				"cannot assign %s to %s", value, target)
		}
		return target

	case *parser.BinaryExpr:
		return in.inferBinary(e, scope)

	case *parser.UnaryExpr:
		t := in.inferExpr(e.X, scope)
		if IsUnknown(t) {
			return Unknown()
		}
		switch e.Op {
		case parser.MINUS:
			if !isNumeric(t) {
				in.diags.Errorf(e.Loc.Range(), "type-mismatch",
					"operator %q requires a numeric operand, found %s", "-", t)
				return Unknown()
			}
			return t
		case parser.NOT:
			if t.Kind != KindPrimitive || t.Name != "bool" {
				in.diags.Errorf(e.Loc.Range(), "type-mismatch",
					"operator %q requires a bool operand, found %s", "!", t)
				return Unknown()
			}
			return t
		}
		return Unknown()

	case *parser.IndexExpr:
		in.inferExpr(e.X, scope)
		idx := in.inferExpr(e.Index, scope)
		if !IsUnknown(idx) && !isNumeric(idx) {
			in.diags.Errorf(e.Index.Span().Range(), "type-mismatch",
				"index must be numeric, found %s", idx)
		}
		// Array element types are outside the analyzed subset.
		return Unknown()

	case *parser.BadExpr:
		return Unknown()
	}
	return Unknown()
}

func (in *inferencer) inferBinary(e *parser.BinaryExpr, scope *Scope) *Type {
	left := in.inferExpr(e.L, scope)
	right := in.inferExpr(e.R, scope)

	switch e.Op {
	case parser.AND, parser.OR:
		for _, t := range []*Type{left, right} {
			if !IsUnknown(t) && (t.Kind != KindPrimitive || t.Name != "bool") {
				in.diags.Errorf(e.Loc.Range(), "type-mismatch",
					"logical operator requires bool operands, found %s", t)
			}
		}
		return Primitive("bool")

	case parser.EQ, parser.NE, parser.LT, parser.GT, parser.LE, parser.GE:
		if !IsUnknown(left) && !IsUnknown(right) &&
			!assignable(left, right) && !assignable(right, left) {
			in.diags.Errorf(e.Loc.Range(), "type-mismatch",
				"cannot compare %s with %s", left, right)
		}
		return Primitive("bool")

	default:
		if IsUnknown(left) || IsUnknown(right) {
			return Unknown()
		}
		// `+` doubles as string concatenation.
		if e.Op == parser.PLUS && left.Name == "string" && right.Name == "string" {
			return Primitive("string")
		}
		if !isNumeric(left) || !isNumeric(right) {
			in.diags.Errorf(e.Loc.Range(), "type-mismatch",
				"operator %q requires numeric operands, found %s and %s",
				e.Op.String(), left, right)
			return Unknown()
		}
		// When both operands adapt, the sized type wins over the bare
		// literal type so `x + 1` keeps the type of `x`.
		if assignable(left, right) && assignable(right, left) {
			if left.Name == "int" {
				return right
			}
			return left
		}
		if assignable(left, right) {
			return left
		}
		if assignable(right, left) {
			return right
		}
		in.diags.Errorf(e.Loc.Range(), "type-mismatch",
			"mismatched operand types %s and %s", left, right)
		return Unknown()
	}
}

// inferCall resolves a call expression. Calls to fully typed functions are
// checked against their declared signature; calls to generic functions
// derive a specialization key from the concrete argument types and
// instantiate (or reuse) a specialization.
func (in *inferencer) inferCall(e *parser.CallExpr, scope *Scope) *Type {
	argTypes := make([]*Type, len(e.Args))
	for i, arg := range e.Args {
		argTypes[i] = in.inferExpr(arg, scope)
	}

	callee, ok := e.Callee.(*parser.Ident)
	if !ok {
		in.inferExpr(e.Callee, scope)
		in.diags.Errorf(e.Callee.Span().Range(), "not-callable",
			"expression is not callable")
		return Unknown()
	}

	sym := scope.Lookup(callee.Name)
	if sym == nil {
		in.diags.Errorf(callee.Loc.Range(), "unresolved-identifier",
			"unresolved identifier %q", callee.Name)
		return Unknown()
	}
	in.result.Resolutions[callee] = sym

	if sym.Kind != SymbolFunction || sym.Type == nil || sym.Type.Kind != KindFunction {
		in.diags.Errorf(callee.Loc.Range(), "not-callable",
			"%s %q is not callable", sym.Kind, sym.Name)
		return Unknown()
	}

	fi := in.funcs[sym.Name]
	decl, _ := sym.Node.(*parser.FuncDecl)
	if decl != nil && decl.Generic() {
		return in.inferGenericCall(e, decl, argTypes)
	}

	// Fully typed (including external): arity and argument checks against
	// the declared signature.
	ft := sym.Type
	if !arityMatches(ft, len(e.Args)) {
		in.diags.Errorf(e.Loc.Range(), "call-mismatch",
			"%s expects %s, got %d", sym.Name, describeArity(ft), len(e.Args))
		return Unknown()
	}
	for i := 0; i < len(ft.Params) && i < len(argTypes); i++ {
		if !assignable(ft.Params[i], argTypes[i]) {
			in.diags.Errorf(e.Args[i].Span().Range(), "call-mismatch",
				"argument %d of %q: cannot use %s as %s",
				i+1, sym.Name, argTypes[i], ft.Params[i])
		}
	}

	if ft.Return == nil && fi != nil {
		// Return type not annotated yet; infer the body on demand.
		in.inferFuncBody(fi)
	}
	if ft.Return == nil {
		return Unknown()
	}
	return ft.Return
}

func arityMatches(ft *Type, args int) bool {
	if ft.Variadic {
		return args >= len(ft.Params)
	}
	return args == len(ft.Params)
}

func describeArity(ft *Type) string {
	if ft.Variadic {
		return fmt.Sprintf("at least %d arguments", len(ft.Params))
	}
	return fmt.Sprintf("%d arguments", len(ft.Params))
}

// inferGenericCall finds or creates the specialization matching the call
// site's argument-type tuple and returns its inferred return type.
func (in *inferencer) inferGenericCall(e *parser.CallExpr, decl *parser.FuncDecl, argTypes []*Type) *Type {
	if len(e.Args) != len(decl.Params) {
		in.diags.Errorf(e.Loc.Range(), "call-mismatch",
			"%s expects %d arguments, got %d", decl.Name, len(decl.Params), len(e.Args))
		return Unknown()
	}

	// A specialization key needs every argument type; give up quietly on
	// unknowns so upstream errors do not multiply.
	for _, t := range argTypes {
		if IsUnknown(t) {
			return Unknown()
		}
	}

	// Annotated parameters of a generic function still constrain their
	// arguments.
	for i, p := range decl.Params {
		if p.Type == nil {
			continue
		}
		want := in.resolveTypeRef(p.Type)
		if !assignable(want, argTypes[i]) {
			in.diags.Errorf(e.Args[i].Span().Range(), "call-mismatch",
				"argument %d of %q: cannot use %s as %s",
				i+1, decl.Name, argTypes[i], want)
			return Unknown()
		}
		argTypes[i] = want
	}

	if spec := in.result.Specs.Find(decl.Name, argTypes); spec != nil {
		if spec.inProgress {
			// Recursive call with the same signature; the return type is
			// still being computed.
			return Unknown()
		}
		return spec.Return
	}

	spec := &Specialization{
		Func:       decl,
		ArgTypes:   argTypes,
		Return:     Unknown(),
		ExprTypes:  make(map[parser.Expr]*Type),
		inProgress: true,
	}
	in.result.Specs.add(decl.Name, spec)

	// Re-run inference over the function body with parameters bound to the
	// concrete types. The body AST is the original; parameter symbols carry
	// the original declaration spans so every specialization's occurrences
	// resolve to the same source location.
	scope := NewScope(in.globals)
	for i, p := range decl.Params {
		scope.Insert(&Symbol{
			Name:     p.Name,
			Kind:     SymbolParameter,
			DeclSpan: p.NameSpan,
			Type:     argTypes[i],
			Node:     p,
		})
	}

	prevTypes := in.types
	in.types = spec.ExprTypes
	ret := in.inferBody(decl.Body, scope, decl)
	in.types = prevTypes

	spec.Return = ret
	spec.inProgress = false
	return ret
}

// inferGenericFallback resolves the body of a generic function that no call
// site instantiated, binding parameters to the unknown type. This keeps
// navigation working inside uncalled generic functions.
func (in *inferencer) inferGenericFallback(fi *funcInfo) {
	decl := fi.decl
	if decl.Body == nil {
		return
	}
	scope := NewScope(in.globals)
	for _, p := range decl.Params {
		t := Unknown()
		if p.Type != nil {
			t = in.resolveTypeRef(p.Type)
		}
		scope.Insert(&Symbol{
			Name:     p.Name,
			Kind:     SymbolParameter,
			DeclSpan: p.NameSpan,
			Type:     t,
			Node:     p,
		})
	}

	// Findings from this speculative pass would double-report against real
	// specializations elsewhere, so they are collected and dropped.
	prevDiags := in.diags
	in.diags = &diagnostics.List{}
	var returns []*Type
	prevReturns := in.returns
	in.returns = &returns
	for _, stmt := range decl.Body.Stmts {
		in.inferStmt(stmt, scope)
	}
	in.returns = prevReturns
	in.diags = prevDiags
}
