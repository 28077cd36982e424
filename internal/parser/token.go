package parser

// Kind identifies a lexical token class.
type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	IDENT
	NUMBER
	STRING

	// Keywords
	VAR
	LET
	CONST
	FUNCTION
	EXTERNAL
	STRUCT
	RETURN
	BREAK
	CONTINUE
	IF
	ELSE
	FOR
	WHILE
	TRUE
	FALSE

	// Operators and punctuation
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	ASSIGN   // =
	EQ       // ==
	NE       // !=
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	AND      // &&
	OR       // ||
	NOT      // !
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	SEMI     // ;
	COMMA    // ,
	DOT      // .
	COLON    // :
	ELLIPSIS // ...
)

var kindNames = map[Kind]string{
	EOF:      "EOF",
	ILLEGAL:  "illegal",
	IDENT:    "identifier",
	NUMBER:   "number",
	STRING:   "string",
	VAR:      "var",
	LET:      "let",
	CONST:    "const",
	FUNCTION: "function",
	EXTERNAL: "external",
	STRUCT:   "struct",
	RETURN:   "return",
	BREAK:    "break",
	CONTINUE: "continue",
	IF:       "if",
	ELSE:     "else",
	FOR:      "for",
	WHILE:    "while",
	TRUE:     "true",
	FALSE:    "false",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	PERCENT:  "%",
	ASSIGN:   "=",
	EQ:       "==",
	NE:       "!=",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	AND:      "&&",
	OR:       "||",
	NOT:      "!",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",
	SEMI:     ";",
	COMMA:    ",",
	DOT:      ".",
	COLON:    ":",
	ELLIPSIS: "...",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"var":      VAR,
	"let":      LET,
	"const":    CONST,
	"function": FUNCTION,
	"external": EXTERNAL,
	"struct":   STRUCT,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"if":       IF,
	"else":     ELSE,
	"for":      FOR,
	"while":    WHILE,
	"true":     TRUE,
	"false":    FALSE,
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind Kind
	Text string
	Span Span
}
