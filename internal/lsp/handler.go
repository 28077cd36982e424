package lsp

import (
	"log"

	"jsastad/internal/document"
	"jsastad/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (ls *LanguageServer) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (ls *LanguageServer) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	ls.clientMu.Lock()
	ls.client = context
	ls.clientMu.Unlock()
	log.Println("Server initialized")
	return nil
}

func (ls *LanguageServer) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LanguageServer) shutdown(context *glsp.Context) error {
	log.Println("Server shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	ls.sched.Stop()
	ls.store.CloseAll()
	return nil
}

func (ls *LanguageServer) exit(context *glsp.Context) error {
	return nil
}

func (ls *LanguageServer) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	snapshot := ls.store.Open(uri, params.TextDocument.Text, params.TextDocument.Version)
	ls.sched.NotifyChanged(uri, snapshot.Version)
	log.Printf("opened %s@%d (%d bytes)", uri, snapshot.Version, len(snapshot.Text))
	return nil
}

func (ls *LanguageServer) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	changes := make([]document.Change, 0, len(params.ContentChanges))
	for _, change := range params.ContentChanges {
		switch contentChange := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, document.Change{
				Whole:   true,
				NewText: contentChange.Text,
			})
		case protocol.TextDocumentContentChangeEvent:
			if contentChange.Range == nil {
				changes = append(changes, document.Change{
					Whole:   true,
					NewText: contentChange.Text,
				})
				continue
			}
			changes = append(changes, document.Change{
				Range:   convertRange(*contentChange.Range),
				NewText: contentChange.Text,
			})
		}
	}

	snapshot, err := ls.store.Apply(uri, params.TextDocument.Version, changes)
	if err != nil {
		// A stale or out-of-order edit is dropped; current state stays
		// intact (the client will resend on the next change).
		log.Printf("rejected edit: %v", err)
		return nil
	}

	ls.sched.NotifyChanged(uri, snapshot.Version)
	return nil
}

func (ls *LanguageServer) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	// Analysis state is already current; nothing to do on save.
	return nil
}

func (ls *LanguageServer) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	ls.sched.Cancel(uri)
	ls.store.Close(uri)
	// Clear any published diagnostics for the closed document.
	reportDiagnostics(context, uri, nil)
	log.Printf("closed %s", uri)
	return nil
}

func (ls *LanguageServer) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	uri := params.TextDocument.URI

	snapshot, ok := ls.sched.Snapshot(uri)
	if !ok {
		// No committed snapshot yet; "no definition found", not an error.
		return nil, nil
	}

	decl, ok := snapshot.Index.Definition(convertPosition(params.Position))
	if !ok {
		return nil, nil
	}

	return protocol.Location{
		URI:   uri,
		Range: convertSpan(decl),
	}, nil
}

// publishDiagnostics pushes a committed snapshot's diagnostics to the
// client. Runs on the analysis worker goroutine.
func (ls *LanguageServer) publishDiagnostics(snapshot scheduler.Snapshot) {
	ls.clientMu.Lock()
	client := ls.client
	ls.clientMu.Unlock()
	if client == nil {
		return
	}
	reportDiagnostics(client, snapshot.URI, convertDiagnostics(snapshot.Diagnostics))
}

func reportDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	context.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
