package lsp

import (
	"sync"

	"jsastad/internal/config"
	"jsastad/internal/document"
	"jsastad/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "jsastad"

var version = "0.1.0"

// LanguageServer glues the protocol to the document store and the analysis
// scheduler. Handlers never block on analysis; queries read the latest
// committed snapshot.
type LanguageServer struct {
	store   *document.Store
	sched   *scheduler.Scheduler
	handler *protocol.Handler

	// client is the context captured at initialized, used to push
	// diagnostics from the analysis worker.
	clientMu sync.Mutex
	client   *glsp.Context
}

// NewServer builds the language server and its protocol handler table.
func NewServer(cfg config.Config) (*server.Server, error) {
	store := document.NewStore()
	sched := scheduler.New(store, cfg.Debounce())

	ls := &LanguageServer{
		store: store,
		sched: sched,
	}
	sched.SetPublisher(ls.publishDiagnostics)

	ls.handler = &protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		SetTrace:               ls.setTrace,
		Shutdown:               ls.shutdown,
		Exit:                   ls.exit,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDefinition: ls.textDocumentDefinition,
	}

	sched.Run()

	return server.NewServer(ls.handler, lsName, false), nil
}
