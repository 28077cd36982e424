// Package parser turns JSasta source text into a syntax tree.
//
// Parsing is a pure function of the text: Parse never fails and shares no
// state between calls, so two versions of a document can be parsed
// concurrently. Malformed regions become Bad* nodes plus diagnostics and
// parsing resumes at the next statement boundary.
package parser

import (
	"strings"

	"jsastad/internal/diagnostics"
)

type parser struct {
	lx    *lexer
	tok   Token
	diags *diagnostics.List
}

// Parse builds a best-effort syntax tree for the given source text together
// with any parse diagnostics.
func Parse(src string) (*Program, []diagnostics.Diagnostic) {
	diags := &diagnostics.List{}
	p := &parser{lx: newLexer(src, diags), diags: diags}
	p.advance()

	prog := &Program{}
	start := p.tok.Span.Start
	for p.tok.Kind != EOF {
		before := p.tok
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Decls = append(prog.Decls, stmt)
		}
		// Guarantee progress even when a statement consumed nothing.
		if p.tok == before && p.tok.Kind != EOF {
			p.advance()
		}
	}
	prog.Loc = Span{Start: start, End: p.tok.Span.End}
	return prog, diags.Items()
}

func (p *parser) advance() {
	for {
		p.tok = p.lx.scan()
		if p.tok.Kind != ILLEGAL {
			return
		}
		// The lexer already reported the character; skip it.
	}
}

func (p *parser) at(kind Kind) bool {
	return p.tok.Kind == kind
}

// expect consumes a token of the given kind or reports an error and leaves
// the current token in place.
func (p *parser) expect(kind Kind) (Token, bool) {
	if p.tok.Kind == kind {
		tok := p.tok
		p.advance()
		return tok, true
	}
	p.errorAtCurrent("expected %q, found %q", kind.String(), p.tok.describe())
	return p.tok, false
}

func (t Token) describe() string {
	if t.Kind == EOF {
		return "end of file"
	}
	if t.Text != "" {
		return t.Text
	}
	return t.Kind.String()
}

func (p *parser) errorAtCurrent(format string, args ...any) {
	p.diags.Errorf(p.tok.Span.Range(), "syntax", format, args...)
}

// sync skips tokens until a likely statement boundary: after a semicolon, or
// before a closing brace or a statement keyword.
func (p *parser) sync() {
	for {
		switch p.tok.Kind {
		case EOF, RBRACE, STRUCT, FUNCTION, EXTERNAL, VAR, LET, CONST,
			RETURN, IF, FOR, WHILE, BREAK, CONTINUE:
			return
		case SEMI:
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *parser) parseStatement() Stmt {
	switch p.tok.Kind {
	case STRUCT:
		return p.parseStructDecl()
	case EXTERNAL:
		return p.parseExternalDecl()
	case FUNCTION:
		return p.parseFuncDecl()
	case VAR, LET, CONST:
		return p.parseVarDecl()
	case RETURN:
		return p.parseReturn()
	case BREAK:
		tok := p.tok
		p.advance()
		p.expectSemi()
		return &BreakStmt{Loc: tok.Span}
	case CONTINUE:
		tok := p.tok
		p.advance()
		p.expectSemi()
		return &ContinueStmt{Loc: tok.Span}
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case LBRACE:
		return p.parseBlock()
	case SEMI:
		// Stray semicolon, harmless.
		p.advance()
		return nil
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) expectSemi() {
	if p.at(SEMI) {
		p.advance()
		return
	}
	p.errorAtCurrent("expected %q, found %q", ";", p.tok.describe())
}

func (p *parser) parseTypeRef() *TypeRef {
	if p.at(IDENT) {
		tok := p.tok
		p.advance()
		return &TypeRef{Name: tok.Text, Loc: tok.Span}
	}
	p.errorAtCurrent("expected type name, found %q", p.tok.describe())
	return nil
}

func (p *parser) parseStructDecl() Stmt {
	start := p.tok.Span.Start
	p.advance() // struct

	nameTok, ok := p.expect(IDENT)
	if !ok {
		p.sync()
		return &BadStmt{Loc: Span{Start: start, End: p.tok.Span.Start}}
	}

	decl := &StructDecl{Name: nameTok.Text, NameSpan: nameTok.Span}

	if _, ok := p.expect(LBRACE); !ok {
		p.sync()
		decl.Loc = Span{Start: start, End: p.tok.Span.Start}
		return decl
	}

	for !p.at(RBRACE) && !p.at(EOF) {
		memberTok, ok := p.expect(IDENT)
		if !ok {
			p.sync()
			break
		}
		member := &StructMember{Name: memberTok.Text, NameSpan: memberTok.Span}
		if _, ok := p.expect(COLON); ok {
			member.Type = p.parseTypeRef()
		}
		end := memberTok.Span.End
		if member.Type != nil {
			end = member.Type.Loc.End
		}
		member.Loc = Span{Start: memberTok.Span.Start, End: end}
		decl.Members = append(decl.Members, member)
		p.expectSemi()
	}

	if p.at(RBRACE) {
		decl.Loc = Span{Start: start, End: p.tok.Span.End}
		p.advance()
	} else {
		p.errorAtCurrent("unterminated struct %q, expected %q", decl.Name, "}")
		decl.Loc = Span{Start: start, End: p.tok.Span.Start}
	}
	return decl
}

func (p *parser) parseExternalDecl() Stmt {
	start := p.tok.Span.Start
	p.advance() // external
	if _, ok := p.expect(FUNCTION); !ok {
		p.sync()
		return &BadStmt{Loc: Span{Start: start, End: p.tok.Span.Start}}
	}
	return p.parseFuncSignature(start, true)
}

func (p *parser) parseFuncDecl() Stmt {
	start := p.tok.Span.Start
	p.advance() // function
	return p.parseFuncSignature(start, false)
}

func (p *parser) parseFuncSignature(start Position, external bool) Stmt {
	nameTok, ok := p.expect(IDENT)
	if !ok {
		p.sync()
		return &BadStmt{Loc: Span{Start: start, End: p.tok.Span.Start}}
	}

	decl := &FuncDecl{
		Name:     nameTok.Text,
		NameSpan: nameTok.Span,
		External: external,
	}

	if _, ok := p.expect(LPAREN); !ok {
		p.sync()
		decl.Loc = Span{Start: start, End: p.tok.Span.Start}
		return decl
	}

	for !p.at(RPAREN) && !p.at(EOF) {
		if p.at(ELLIPSIS) {
			if !external {
				p.errorAtCurrent("variadic marker %q is only allowed on external functions", "...")
			}
			decl.Variadic = true
			p.advance()
			break
		}
		paramTok, ok := p.expect(IDENT)
		if !ok {
			p.sync()
			break
		}
		param := &Param{Name: paramTok.Text, NameSpan: paramTok.Span}
		if p.at(COLON) {
			p.advance()
			param.Type = p.parseTypeRef()
		} else if external {
			p.diags.Errorf(paramTok.Span.Range(), "syntax",
				"external function parameter %q requires a type annotation", paramTok.Text)
		}
		end := paramTok.Span.End
		if param.Type != nil {
			end = param.Type.Loc.End
		}
		param.Loc = Span{Start: paramTok.Span.Start, End: end}
		decl.Params = append(decl.Params, param)

		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	p.expect(RPAREN)

	if p.at(COLON) {
		p.advance()
		decl.Return = p.parseTypeRef()
	}

	if external {
		decl.Loc = Span{Start: start, End: p.tok.Span.Start}
		p.expectSemi()
		return decl
	}

	if p.at(LBRACE) {
		decl.Body = p.parseBlock().(*BlockStmt)
		decl.Loc = Span{Start: start, End: decl.Body.Loc.End}
	} else {
		p.errorAtCurrent("expected function body, found %q", p.tok.describe())
		decl.Loc = Span{Start: start, End: p.tok.Span.Start}
	}
	return decl
}

func (p *parser) parseVarDecl() Stmt {
	start := p.tok.Span.Start
	isConst := p.at(CONST)
	p.advance() // var/let/const

	nameTok, ok := p.expect(IDENT)
	if !ok {
		p.sync()
		return &BadStmt{Loc: Span{Start: start, End: p.tok.Span.Start}}
	}

	decl := &VarDecl{Name: nameTok.Text, NameSpan: nameTok.Span, Const: isConst}
	if p.at(COLON) {
		p.advance()
		decl.Type = p.parseTypeRef()
	}
	if p.at(ASSIGN) {
		p.advance()
		decl.Init = p.parseExpression()
	}
	end := nameTok.Span.End
	if decl.Init != nil {
		end = decl.Init.Span().End
	} else if decl.Type != nil {
		end = decl.Type.Loc.End
	}
	decl.Loc = Span{Start: start, End: end}
	p.expectSemi()
	return decl
}

func (p *parser) parseReturn() Stmt {
	start := p.tok.Span
	p.advance() // return
	stmt := &ReturnStmt{}
	if !p.at(SEMI) && !p.at(RBRACE) && !p.at(EOF) {
		stmt.Value = p.parseExpression()
	}
	end := start.End
	if stmt.Value != nil {
		end = stmt.Value.Span().End
	}
	stmt.Loc = Span{Start: start.Start, End: end}
	p.expectSemi()
	return stmt
}

func (p *parser) parseIf() Stmt {
	start := p.tok.Span.Start
	p.advance() // if
	p.expect(LPAREN)
	stmt := &IfStmt{Cond: p.parseExpression()}
	p.expect(RPAREN)
	stmt.Then = p.parseStatement()
	if p.at(ELSE) {
		p.advance()
		stmt.Else = p.parseStatement()
	}
	end := p.tok.Span.Start
	if stmt.Else != nil {
		end = stmt.Else.Span().End
	} else if stmt.Then != nil {
		end = stmt.Then.Span().End
	}
	stmt.Loc = Span{Start: start, End: end}
	return stmt
}

func (p *parser) parseWhile() Stmt {
	start := p.tok.Span.Start
	p.advance() // while
	p.expect(LPAREN)
	stmt := &WhileStmt{Cond: p.parseExpression()}
	p.expect(RPAREN)
	stmt.Body = p.parseStatement()
	end := p.tok.Span.Start
	if stmt.Body != nil {
		end = stmt.Body.Span().End
	}
	stmt.Loc = Span{Start: start, End: end}
	return stmt
}

func (p *parser) parseFor() Stmt {
	start := p.tok.Span.Start
	p.advance() // for
	p.expect(LPAREN)

	stmt := &ForStmt{}
	if p.at(VAR) || p.at(LET) || p.at(CONST) {
		stmt.Init = p.parseVarDecl() // consumes the semicolon
	} else if !p.at(SEMI) {
		init := &ExprStmt{X: p.parseExpression()}
		init.Loc = init.X.Span()
		stmt.Init = init
		p.expectSemi()
	} else {
		p.advance()
	}

	if !p.at(SEMI) {
		stmt.Cond = p.parseExpression()
	}
	p.expectSemi()

	if !p.at(RPAREN) {
		stmt.Post = p.parseExpression()
	}
	p.expect(RPAREN)

	stmt.Body = p.parseStatement()
	end := p.tok.Span.Start
	if stmt.Body != nil {
		end = stmt.Body.Span().End
	}
	stmt.Loc = Span{Start: start, End: end}
	return stmt
}

func (p *parser) parseBlock() Stmt {
	start := p.tok.Span.Start
	p.advance() // {

	block := &BlockStmt{}
	for !p.at(RBRACE) && !p.at(EOF) {
		before := p.tok
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.tok == before && !p.at(RBRACE) && !p.at(EOF) {
			p.advance()
		}
	}
	if p.at(RBRACE) {
		block.Loc = Span{Start: start, End: p.tok.Span.End}
		p.advance()
	} else {
		p.errorAtCurrent("expected %q, found %q", "}", p.tok.describe())
		block.Loc = Span{Start: start, End: p.tok.Span.Start}
	}
	return block
}

func (p *parser) parseExprStmt() Stmt {
	x := p.parseExpression()
	if _, isBad := x.(*BadExpr); isBad {
		p.sync()
		return &BadStmt{Loc: x.Span()}
	}
	stmt := &ExprStmt{X: x, Loc: x.Span()}
	p.expectSemi()
	return stmt
}

// Expression grammar, lowest precedence first: assignment, logical or,
// logical and, equality, comparison, additive, multiplicative, unary,
// postfix (call/member/index), primary.

func (p *parser) parseExpression() Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() Expr {
	left := p.parseLogicalOr()
	if !p.at(ASSIGN) {
		return left
	}
	opSpan := p.tok.Span
	p.advance()

	switch left.(type) {
	case *Ident, *MemberExpr, *IndexExpr:
	default:
		p.diags.Errorf(opSpan.Range(), "syntax", "invalid assignment target")
	}

	value := p.parseAssignment()
	return &AssignExpr{
		Target: left,
		Value:  value,
		Loc:    Span{Start: left.Span().Start, End: value.Span().End},
	}
}

func (p *parser) parseBinary(next func() Expr, kinds ...Kind) Expr {
	left := next()
	for {
		matched := false
		for _, k := range kinds {
			if p.at(k) {
				op := p.tok.Kind
				p.advance()
				right := next()
				left = &BinaryExpr{
					Op: op, L: left, R: right,
					Loc: Span{Start: left.Span().Start, End: right.Span().End},
				}
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
}

func (p *parser) parseLogicalOr() Expr {
	return p.parseBinary(p.parseLogicalAnd, OR)
}

func (p *parser) parseLogicalAnd() Expr {
	return p.parseBinary(p.parseEquality, AND)
}

func (p *parser) parseEquality() Expr {
	return p.parseBinary(p.parseComparison, EQ, NE)
}

func (p *parser) parseComparison() Expr {
	return p.parseBinary(p.parseAdditive, LT, GT, LE, GE)
}

func (p *parser) parseAdditive() Expr {
	return p.parseBinary(p.parseMultiplicative, PLUS, MINUS)
}

func (p *parser) parseMultiplicative() Expr {
	return p.parseBinary(p.parseUnary, STAR, SLASH, PERCENT)
}

func (p *parser) parseUnary() Expr {
	if p.at(MINUS) || p.at(NOT) {
		op := p.tok
		p.advance()
		x := p.parseUnary()
		return &UnaryExpr{Op: op.Kind, X: x, Loc: Span{Start: op.Span.Start, End: x.Span().End}}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() Expr {
	x := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case LPAREN:
			p.advance()
			call := &CallExpr{Callee: x}
			for !p.at(RPAREN) && !p.at(EOF) {
				call.Args = append(call.Args, p.parseExpression())
				if !p.at(COMMA) {
					break
				}
				p.advance()
			}
			end := p.tok.Span.End
			if _, ok := p.expect(RPAREN); !ok {
				end = p.tok.Span.Start
			}
			call.Loc = Span{Start: x.Span().Start, End: end}
			x = call
		case DOT:
			p.advance()
			memberTok, ok := p.expect(IDENT)
			if !ok {
				return &BadExpr{Loc: Span{Start: x.Span().Start, End: p.tok.Span.Start}}
			}
			x = &MemberExpr{
				X:          x,
				Member:     memberTok.Text,
				MemberSpan: memberTok.Span,
				Loc:        Span{Start: x.Span().Start, End: memberTok.Span.End},
			}
		case LBRACKET:
			p.advance()
			idx := p.parseExpression()
			end := p.tok.Span.End
			if _, ok := p.expect(RBRACKET); !ok {
				end = p.tok.Span.Start
			}
			x = &IndexExpr{X: x, Index: idx, Loc: Span{Start: x.Span().Start, End: end}}
		default:
			return x
		}
	}
}

func (p *parser) parsePrimary() Expr {
	tok := p.tok
	switch tok.Kind {
	case IDENT:
		p.advance()
		return &Ident{Name: tok.Text, Loc: tok.Span}
	case NUMBER:
		p.advance()
		return &NumberLit{Raw: tok.Text, IsFloat: strings.Contains(tok.Text, "."), Loc: tok.Span}
	case STRING:
		p.advance()
		return &StringLit{Value: tok.Text, Loc: tok.Span}
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{Value: tok.Kind == TRUE, Loc: tok.Span}
	case LPAREN:
		p.advance()
		x := p.parseExpression()
		p.expect(RPAREN)
		return x
	default:
		p.errorAtCurrent("expected expression, found %q", tok.describe())
		return &BadExpr{Loc: tok.Span}
	}
}
