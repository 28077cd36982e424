package parser

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"jsastad/internal/diagnostics"
)

// lexer walks the source text rune by rune and tracks zero-based line and
// UTF-16 character positions, matching the protocol's position encoding.
type lexer struct {
	src   string
	off   int // byte offset of the next rune
	line  uint32
	col   uint32 // UTF-16 code units
	diags *diagnostics.List
}

func newLexer(src string, diags *diagnostics.List) *lexer {
	return &lexer{src: src, diags: diags}
}

func (lx *lexer) pos() Position {
	return Position{Line: lx.line, Character: lx.col}
}

func (lx *lexer) peek() rune {
	if lx.off >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
	return r
}

func (lx *lexer) peek2() rune {
	if lx.off >= len(lx.src) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	if lx.off+size >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.off+size:])
	return r
}

func (lx *lexer) next() rune {
	if lx.off >= len(lx.src) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 0
	} else {
		lx.col += uint32(utf16.RuneLen(r))
	}
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for {
		r := lx.peek()
		switch {
		case r == 0:
			return
		case unicode.IsSpace(r):
			lx.next()
		case r == '/' && lx.peek2() == '/':
			for lx.peek() != 0 && lx.peek() != '\n' {
				lx.next()
			}
		case r == '/' && lx.peek2() == '*':
			start := lx.pos()
			lx.next()
			lx.next()
			closed := false
			for lx.peek() != 0 {
				if lx.peek() == '*' && lx.peek2() == '/' {
					lx.next()
					lx.next()
					closed = true
					break
				}
				lx.next()
			}
			if !closed {
				lx.diags.Errorf(Span{Start: start, End: lx.pos()}.Range(),
					"unterminated-comment", "unterminated block comment")
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scan returns the next token. At end of input it returns an EOF token with a
// zero-width span; it never fails.
func (lx *lexer) scan() Token {
	lx.skipSpaceAndComments()

	start := lx.pos()
	r := lx.peek()

	switch {
	case r == 0:
		return Token{Kind: EOF, Span: Span{Start: start, End: start}}

	case isIdentStart(r):
		var sb strings.Builder
		for isIdentPart(lx.peek()) {
			sb.WriteRune(lx.next())
		}
		text := sb.String()
		kind := IDENT
		if kw, ok := keywords[text]; ok {
			kind = kw
		}
		return Token{Kind: kind, Text: text, Span: Span{Start: start, End: lx.pos()}}

	case unicode.IsDigit(r):
		var sb strings.Builder
		for unicode.IsDigit(lx.peek()) {
			sb.WriteRune(lx.next())
		}
		// A '.' followed by a digit continues the literal; `1.x` is a number
		// followed by member access.
		if lx.peek() == '.' && unicode.IsDigit(lx.peek2()) {
			sb.WriteRune(lx.next())
			for unicode.IsDigit(lx.peek()) {
				sb.WriteRune(lx.next())
			}
		}
		return Token{Kind: NUMBER, Text: sb.String(), Span: Span{Start: start, End: lx.pos()}}

	case r == '"':
		lx.next()
		var sb strings.Builder
		closed := false
		for lx.peek() != 0 {
			c := lx.peek()
			if c == '"' {
				lx.next()
				closed = true
				break
			}
			if c == '\n' {
				break
			}
			if c == '\\' {
				lx.next()
				esc := lx.next()
				switch esc {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r':
					sb.WriteByte('\r')
				case '\\':
					sb.WriteByte('\\')
				case '"':
					sb.WriteByte('"')
				case '0':
					sb.WriteByte(0)
				default:
					sb.WriteRune(esc)
				}
				continue
			}
			sb.WriteRune(lx.next())
		}
		if !closed {
			lx.diags.Errorf(Span{Start: start, End: lx.pos()}.Range(),
				"unterminated-string", "unterminated string literal")
		}
		return Token{Kind: STRING, Text: sb.String(), Span: Span{Start: start, End: lx.pos()}}
	}

	// Operators and punctuation.
	lx.next()
	two := func(second rune, withKind, withoutKind Kind) Token {
		if lx.peek() == second {
			lx.next()
			return Token{Kind: withKind, Text: withKind.String(), Span: Span{Start: start, End: lx.pos()}}
		}
		return Token{Kind: withoutKind, Text: withoutKind.String(), Span: Span{Start: start, End: lx.pos()}}
	}

	switch r {
	case '+':
		return lx.simple(PLUS, start)
	case '-':
		return lx.simple(MINUS, start)
	case '*':
		return lx.simple(STAR, start)
	case '/':
		return lx.simple(SLASH, start)
	case '%':
		return lx.simple(PERCENT, start)
	case '(':
		return lx.simple(LPAREN, start)
	case ')':
		return lx.simple(RPAREN, start)
	case '{':
		return lx.simple(LBRACE, start)
	case '}':
		return lx.simple(RBRACE, start)
	case '[':
		return lx.simple(LBRACKET, start)
	case ']':
		return lx.simple(RBRACKET, start)
	case ';':
		return lx.simple(SEMI, start)
	case ',':
		return lx.simple(COMMA, start)
	case ':':
		return lx.simple(COLON, start)
	case '.':
		if lx.peek() == '.' && lx.peek2() == '.' {
			lx.next()
			lx.next()
			return Token{Kind: ELLIPSIS, Text: "...", Span: Span{Start: start, End: lx.pos()}}
		}
		return lx.simple(DOT, start)
	case '=':
		return two('=', EQ, ASSIGN)
	case '!':
		return two('=', NE, NOT)
	case '<':
		return two('=', LE, LT)
	case '>':
		return two('=', GE, GT)
	case '&':
		if lx.peek() == '&' {
			lx.next()
			return Token{Kind: AND, Text: "&&", Span: Span{Start: start, End: lx.pos()}}
		}
	case '|':
		if lx.peek() == '|' {
			lx.next()
			return Token{Kind: OR, Text: "||", Span: Span{Start: start, End: lx.pos()}}
		}
	}

	span := Span{Start: start, End: lx.pos()}
	lx.diags.Errorf(span.Range(), "unexpected-character", "unexpected character %q", r)
	return Token{Kind: ILLEGAL, Text: string(r), Span: span}
}

func (lx *lexer) simple(kind Kind, start Position) Token {
	return Token{Kind: kind, Text: kind.String(), Span: Span{Start: start, End: lx.pos()}}
}
