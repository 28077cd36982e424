package parser

import "jsastad/internal/diagnostics"

// Position is a zero-based (line, UTF-16 character) location in a document.
type Position struct {
	Line      uint32
	Character uint32
}

// Before reports whether p comes strictly before q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Character < q.Character
}

// Span is a half-open [Start, End) source region.
type Span struct {
	Start Position
	End   Position
}

// Contains reports whether the position falls inside the span. The end is
// treated as exclusive, matching edit ranges.
func (s Span) Contains(p Position) bool {
	if p.Before(s.Start) {
		return false
	}
	return p.Before(s.End)
}

// Range converts the span to the diagnostics representation.
func (s Span) Range() diagnostics.Range {
	return diagnostics.Range{
		Start: diagnostics.Position{Line: s.Start.Line, Character: s.Start.Character},
		End:   diagnostics.Position{Line: s.End.Line, Character: s.End.Character},
	}
}

// Node is any syntax tree node.
type Node interface {
	Span() Span
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of one parsed document.
type Program struct {
	Decls []Stmt
	Loc   Span
}

func (p *Program) Span() Span { return p.Loc }

// TypeRef is a written type annotation, e.g. `i32` or `Person`.
type TypeRef struct {
	Name string
	Loc  Span
}

func (t *TypeRef) Span() Span { return t.Loc }

// StructMember is one `name: type;` entry in a struct body.
type StructMember struct {
	Name     string
	NameSpan Span
	Type     *TypeRef
	Loc      Span
}

func (m *StructMember) Span() Span { return m.Loc }

// StructDecl is a `struct Name { ... }` declaration.
type StructDecl struct {
	Name     string
	NameSpan Span
	Members  []*StructMember
	Loc      Span
}

func (d *StructDecl) Span() Span { return d.Loc }
func (d *StructDecl) stmtNode()  {}

// Param is one function parameter, optionally annotated.
type Param struct {
	Name     string
	NameSpan Span
	Type     *TypeRef // nil when unannotated (generic parameter)
	Loc      Span
}

func (p *Param) Span() Span { return p.Loc }

// FuncDecl is a function or external function declaration. External
// declarations have no body and may be variadic.
type FuncDecl struct {
	Name     string
	NameSpan Span
	Params   []*Param
	Return   *TypeRef // nil when unannotated
	Body     *BlockStmt
	External bool
	Variadic bool
	Loc      Span
}

func (d *FuncDecl) Span() Span { return d.Loc }
func (d *FuncDecl) stmtNode()  {}

// Generic reports whether any parameter lacks a type annotation, which makes
// the function subject to call-site specialization.
func (d *FuncDecl) Generic() bool {
	if d.External {
		return false
	}
	for _, p := range d.Params {
		if p.Type == nil {
			return true
		}
	}
	return false
}

// VarDecl is a `var`/`let`/`const` declaration.
type VarDecl struct {
	Name     string
	NameSpan Span
	Type     *TypeRef // nil when inferred from the initializer
	Init     Expr     // may be nil
	Const    bool
	Loc      Span
}

func (d *VarDecl) Span() Span { return d.Loc }
func (d *VarDecl) stmtNode()  {}

// BlockStmt is a `{ ... }` statement list.
type BlockStmt struct {
	Stmts []Stmt
	Loc   Span
}

func (s *BlockStmt) Span() Span { return s.Loc }
func (s *BlockStmt) stmtNode()  {}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	X   Expr
	Loc Span
}

func (s *ExprStmt) Span() Span { return s.Loc }
func (s *ExprStmt) stmtNode()  {}

// ReturnStmt is a `return expr?;` statement.
type ReturnStmt struct {
	Value Expr // may be nil
	Loc   Span
}

func (s *ReturnStmt) Span() Span { return s.Loc }
func (s *ReturnStmt) stmtNode()  {}

// BreakStmt is a `break;` statement.
type BreakStmt struct {
	Loc Span
}

func (s *BreakStmt) Span() Span { return s.Loc }
func (s *BreakStmt) stmtNode()  {}

// ContinueStmt is a `continue;` statement.
type ContinueStmt struct {
	Loc Span
}

func (s *ContinueStmt) Span() Span { return s.Loc }
func (s *ContinueStmt) stmtNode()  {}

// IfStmt is an `if (cond) then else?` statement.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
	Loc  Span
}

func (s *IfStmt) Span() Span { return s.Loc }
func (s *IfStmt) stmtNode()  {}

// WhileStmt is a `while (cond) body` statement.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Loc  Span
}

func (s *WhileStmt) Span() Span { return s.Loc }
func (s *WhileStmt) stmtNode()  {}

// ForStmt is a C-style `for (init; cond; post) body` statement.
type ForStmt struct {
	Init Stmt // may be nil; VarDecl or ExprStmt
	Cond Expr // may be nil
	Post Expr // may be nil
	Body Stmt
	Loc  Span
}

func (s *ForStmt) Span() Span { return s.Loc }
func (s *ForStmt) stmtNode()  {}

// BadStmt marks a region the parser could not make sense of. Analysis skips
// it; the accompanying diagnostic explains why.
type BadStmt struct {
	Loc Span
}

func (s *BadStmt) Span() Span { return s.Loc }
func (s *BadStmt) stmtNode()  {}

// Ident is an identifier occurrence.
type Ident struct {
	Name string
	Loc  Span
}

func (e *Ident) Span() Span { return e.Loc }
func (e *Ident) exprNode()  {}

// NumberLit is an integer or floating point literal.
type NumberLit struct {
	Raw     string
	IsFloat bool
	Loc     Span
}

func (e *NumberLit) Span() Span { return e.Loc }
func (e *NumberLit) exprNode()  {}

// StringLit is a string literal; Value holds the unquoted text.
type StringLit struct {
	Value string
	Loc   Span
}

func (e *StringLit) Span() Span { return e.Loc }
func (e *StringLit) exprNode()  {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Loc   Span
}

func (e *BoolLit) Span() Span { return e.Loc }
func (e *BoolLit) exprNode()  {}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op   Kind
	L, R Expr
	Loc  Span
}

func (e *BinaryExpr) Span() Span { return e.Loc }
func (e *BinaryExpr) exprNode()  {}

// UnaryExpr is a prefix `-` or `!` operation.
type UnaryExpr struct {
	Op  Kind
	X   Expr
	Loc Span
}

func (e *UnaryExpr) Span() Span { return e.Loc }
func (e *UnaryExpr) exprNode()  {}

// AssignExpr is `target = value`. Target is an Ident or MemberExpr.
type AssignExpr struct {
	Target Expr
	Value  Expr
	Loc    Span
}

func (e *AssignExpr) Span() Span { return e.Loc }
func (e *AssignExpr) exprNode()  {}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Loc    Span
}

func (e *CallExpr) Span() Span { return e.Loc }
func (e *CallExpr) exprNode()  {}

// MemberExpr is `x.member`. MemberSpan covers the member name only.
type MemberExpr struct {
	X          Expr
	Member     string
	MemberSpan Span
	Loc        Span
}

func (e *MemberExpr) Span() Span { return e.Loc }
func (e *MemberExpr) exprNode()  {}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	X     Expr
	Index Expr
	Loc   Span
}

func (e *IndexExpr) Span() Span { return e.Loc }
func (e *IndexExpr) exprNode()  {}

// BadExpr marks an unparsable expression.
type BadExpr struct {
	Loc Span
}

func (e *BadExpr) Span() Span { return e.Loc }
func (e *BadExpr) exprNode()  {}
