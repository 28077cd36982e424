package lsp

import (
	"jsastad/internal/diagnostics"
	"jsastad/internal/document"
	"jsastad/internal/parser"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func convertPosition(pos protocol.Position) parser.Position {
	return parser.Position{Line: pos.Line, Character: pos.Character}
}

func convertRange(rng protocol.Range) document.Range {
	return document.Range{
		Start: document.Position{Line: rng.Start.Line, Character: rng.Start.Character},
		End:   document.Position{Line: rng.End.Line, Character: rng.End.Character},
	}
}

func convertSpan(span parser.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: span.Start.Line, Character: span.Start.Character},
		End:   protocol.Position{Line: span.End.Line, Character: span.End.Character},
	}
}

func convertSeverity(severity diagnostics.Severity) protocol.DiagnosticSeverity {
	switch severity {
	case diagnostics.SeverityError:
		return protocol.DiagnosticSeverityError
	case diagnostics.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diagnostics.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func convertDiagnostics(diags []diagnostics.Diagnostic) []protocol.Diagnostic {
	source := lsName
	converted := make([]protocol.Diagnostic, 0, len(diags))
	for _, diag := range diags {
		severity := convertSeverity(diag.Severity)
		item := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      diag.Range.Start.Line,
					Character: diag.Range.Start.Character,
				},
				End: protocol.Position{
					Line:      diag.Range.End.Line,
					Character: diag.Range.End.Character,
				},
			},
			Severity: &severity,
			Source:   &source,
			Message:  diag.Message,
		}
		if diag.Code != "" {
			item.Code = &protocol.IntegerOrString{Value: diag.Code}
		}
		converted = append(converted, item)
	}
	return converted
}
