// Package index maps identifier and member-access occurrences to the
// declarations they resolve to.
//
// The index is rebuilt in full from the latest typed tree on every analysis
// cycle; it is never patched incrementally, so its entries can never drift
// from the tree they were built from.
package index

import (
	"sort"

	"jsastad/internal/analysis"
	"jsastad/internal/parser"
)

// EntryKind distinguishes what an indexed occurrence is.
type EntryKind int

const (
	// EntryDefinition is the declaration's own name; looking it up answers
	// with the declaration itself.
	EntryDefinition EntryKind = iota
	// EntryReference is a use site resolving to some declaration.
	EntryReference
)

// Entry is one indexed occurrence. Unresolved occurrences are recorded with
// Resolved == false rather than dropped, so a failed resolution is visible
// as an explicit "no definition" answer.
type Entry struct {
	Kind     EntryKind
	Name     string
	Span     parser.Span // the occurrence
	Decl     parser.Span // the resolved declaration name span
	Symbol   analysis.SymbolKind
	Resolved bool
}

// Index is the queryable occurrence table for one analyzed document version.
// It is immutable after Build.
type Index struct {
	entries []Entry
}

type builder struct {
	result  *analysis.Result
	entries []Entry
}

// Build walks the typed tree once and records every identifier and
// member-access occurrence together with the declaration span it resolves
// to.
func Build(prog *parser.Program, result *analysis.Result) *Index {
	b := &builder{result: result}
	for _, decl := range prog.Decls {
		b.stmt(decl)
	}

	sort.SliceStable(b.entries, func(i, j int) bool {
		a, c := b.entries[i].Span.Start, b.entries[j].Span.Start
		if a.Line != c.Line {
			return a.Line < c.Line
		}
		return a.Character < c.Character
	})
	return &Index{entries: b.entries}
}

func (b *builder) definition(name string, span parser.Span, kind analysis.SymbolKind) {
	b.entries = append(b.entries, Entry{
		Kind:     EntryDefinition,
		Name:     name,
		Span:     span,
		Decl:     span,
		Symbol:   kind,
		Resolved: true,
	})
}

func (b *builder) stmt(stmt parser.Stmt) {
	switch s := stmt.(type) {
	case *parser.StructDecl:
		b.definition(s.Name, s.NameSpan, analysis.SymbolStruct)
		for _, m := range s.Members {
			b.definition(m.Name, m.NameSpan, analysis.SymbolField)
		}

	case *parser.FuncDecl:
		b.definition(s.Name, s.NameSpan, analysis.SymbolFunction)
		for _, p := range s.Params {
			b.definition(p.Name, p.NameSpan, analysis.SymbolParameter)
		}
		if s.Body != nil {
			b.stmt(s.Body)
		}

	case *parser.VarDecl:
		b.definition(s.Name, s.NameSpan, analysis.SymbolVariable)
		if s.Init != nil {
			b.expr(s.Init)
		}

	case *parser.BlockStmt:
		for _, st := range s.Stmts {
			b.stmt(st)
		}

	case *parser.ExprStmt:
		b.expr(s.X)

	case *parser.ReturnStmt:
		if s.Value != nil {
			b.expr(s.Value)
		}

	case *parser.IfStmt:
		b.expr(s.Cond)
		b.stmt(s.Then)
		if s.Else != nil {
			b.stmt(s.Else)
		}

	case *parser.WhileStmt:
		b.expr(s.Cond)
		b.stmt(s.Body)

	case *parser.ForStmt:
		if s.Init != nil {
			b.stmt(s.Init)
		}
		if s.Cond != nil {
			b.expr(s.Cond)
		}
		if s.Post != nil {
			b.expr(s.Post)
		}
		b.stmt(s.Body)
	}
}

func (b *builder) expr(x parser.Expr) {
	switch e := x.(type) {
	case *parser.Ident:
		if sym, ok := b.result.Resolutions[e]; ok {
			b.entries = append(b.entries, Entry{
				Kind:     EntryReference,
				Name:     e.Name,
				Span:     e.Loc,
				Decl:     sym.DeclSpan,
				Symbol:   sym.Kind,
				Resolved: true,
			})
		} else {
			b.entries = append(b.entries, Entry{
				Kind: EntryReference,
				Name: e.Name,
				Span: e.Loc,
			})
		}

	case *parser.MemberExpr:
		b.expr(e.X)
		if sym, ok := b.result.Members[e]; ok {
			b.entries = append(b.entries, Entry{
				Kind:     EntryReference,
				Name:     e.Member,
				Span:     e.MemberSpan,
				Decl:     sym.DeclSpan,
				Symbol:   sym.Kind,
				Resolved: true,
			})
		} else {
			b.entries = append(b.entries, Entry{
				Kind: EntryReference,
				Name: e.Member,
				Span: e.MemberSpan,
			})
		}

	case *parser.CallExpr:
		b.expr(e.Callee)
		for _, arg := range e.Args {
			b.expr(arg)
		}

	case *parser.AssignExpr:
		b.expr(e.Target)
		b.expr(e.Value)

	case *parser.BinaryExpr:
		b.expr(e.L)
		b.expr(e.R)

	case *parser.UnaryExpr:
		b.expr(e.X)

	case *parser.IndexExpr:
		b.expr(e.X)
		b.expr(e.Index)
	}
}

// Definition returns the declaration span for the smallest indexed
// occurrence containing the position. The second result is false when the
// position is not inside any occurrence or the occurrence did not resolve.
func (idx *Index) Definition(pos parser.Position) (parser.Span, bool) {
	best := idx.lookup(pos)
	if best < 0 || !idx.entries[best].Resolved {
		return parser.Span{}, false
	}
	return idx.entries[best].Decl, true
}

// EntryAt returns the smallest occurrence containing the position, resolved
// or not.
func (idx *Index) EntryAt(pos parser.Position) (Entry, bool) {
	best := idx.lookup(pos)
	if best < 0 {
		return Entry{}, false
	}
	return idx.entries[best], true
}

// lookup binary-searches the sorted entries for the smallest occurrence
// containing the position. Occurrence spans are single name tokens and never
// cross lines, so only entries starting on the position's line at or before
// it are candidates.
func (idx *Index) lookup(pos parser.Position) int {
	first := sort.Search(len(idx.entries), func(i int) bool {
		return pos.Before(idx.entries[i].Span.Start)
	})
	best := -1
	for i := first - 1; i >= 0 && idx.entries[i].Span.Start.Line == pos.Line; i-- {
		if !idx.entries[i].Span.Contains(pos) {
			continue
		}
		if best < 0 || narrower(idx.entries[i].Span, idx.entries[best].Span) {
			best = i
		}
	}
	return best
}

// Entries returns all occurrences in document order. The slice is a copy.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Len returns the number of indexed occurrences.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// narrower reports whether span a covers fewer positions than span b. Only
// same-line spans need real comparison; identifier occurrences never span
// lines.
func narrower(a, b parser.Span) bool {
	aLines := a.End.Line - a.Start.Line
	bLines := b.End.Line - b.Start.Line
	if aLines != bLines {
		return aLines < bLines
	}
	aWidth := int64(a.End.Character) - int64(a.Start.Character)
	bWidth := int64(b.End.Character) - int64(b.Start.Character)
	return aWidth < bWidth
}
