// Package scheduler owns the background analysis pipeline.
//
// One worker goroutine serializes parse, infer and index per document.
// Edits arriving while a cycle runs supersede it: the stale cycle's result
// is discarded before commit, never merged. Readers only ever observe
// complete committed snapshots, swapped atomically under the scheduler's
// lock, so a definition query can never see a new tree with an old index.
package scheduler

import (
	"log"
	"sync"
	"time"

	"jsastad/internal/analysis"
	"jsastad/internal/diagnostics"
	"jsastad/internal/document"
	"jsastad/internal/parser"
	"jsastad/pkg/index"
)

// Snapshot is the committed result of one analysis cycle for one document
// version. Immutable once published.
type Snapshot struct {
	URI         string
	Version     int32
	Program     *parser.Program
	Analysis    *analysis.Result
	Index       *index.Index
	Diagnostics []diagnostics.Diagnostic
}

// TextSource supplies the current text of a document; the document store
// implements it.
type TextSource interface {
	Snapshot(uri string) (document.Snapshot, bool)
}

// Publisher receives every committed snapshot, e.g. to push diagnostics to
// the client. Called from the worker goroutine; must not block for long.
type Publisher func(Snapshot)

type docState struct {
	latest    int32 // latest requested version
	queued    bool
	closed    bool
	committed *Snapshot
}

// Scheduler runs at most one analysis cycle per document at a time and
// guarantees commits happen in non-decreasing version order.
type Scheduler struct {
	source   TextSource
	publish  Publisher
	debounce time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	docs    map[string]*docState
	stopped bool
	wg      sync.WaitGroup
}

// New creates a scheduler reading document text from source. The debounce
// window bounds how quickly a burst of edits is coalesced into one cycle;
// zero disables debouncing. Call Run to start the worker.
func New(source TextSource, debounce time.Duration) *Scheduler {
	s := &Scheduler{
		source:   source,
		debounce: debounce,
		docs:     make(map[string]*docState),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetPublisher installs the committed-snapshot callback. Must be called
// before Run.
func (s *Scheduler) SetPublisher(p Publisher) {
	s.publish = p
}

// Run starts the background worker.
func (s *Scheduler) Run() {
	s.wg.Add(1)
	go s.worker()
}

// NotifyChanged enqueues an analysis cycle for the document. A newer version
// always supersedes queued or running work for the same document.
func (s *Scheduler) NotifyChanged(uri string, version int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	ds, ok := s.docs[uri]
	if !ok {
		ds = &docState{}
		s.docs[uri] = ds
	}
	if version > ds.latest {
		ds.latest = version
	}
	ds.closed = false
	ds.queued = true
	s.cond.Signal()
}

// Snapshot returns the latest committed snapshot for the document. It may
// lag behind the latest edit while analysis runs; callers must tolerate
// eventual consistency.
func (s *Scheduler) Snapshot(uri string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.docs[uri]
	if !ok || ds.committed == nil {
		return nil, false
	}
	return ds.committed, true
}

// Cancel aborts any queued or running cycle for the document and discards
// its committed state. Used on document close.
func (s *Scheduler) Cancel(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds, ok := s.docs[uri]; ok {
		ds.closed = true
		ds.queued = false
		ds.committed = nil
	}
	delete(s.docs, uri)
}

// Stop cancels all pending work and waits for the worker to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, ds := range s.docs {
		ds.queued = false
	}
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		uri, ok := s.take()
		if !ok {
			return
		}

		if s.debounce > 0 {
			// Let a burst of edits settle; the text read below picks up
			// whatever arrived meanwhile.
			time.Sleep(s.debounce)
		}

		s.runCycle(uri)
	}
}

// take blocks until a document has queued work or the scheduler stops.
func (s *Scheduler) take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.stopped {
			return "", false
		}
		for uri, ds := range s.docs {
			if ds.queued && !ds.closed {
				ds.queued = false
				return uri, true
			}
		}
		s.cond.Wait()
	}
}

// superseded reports whether a cycle for the given version is stale: the
// document was closed, the scheduler stopped, or a newer version was
// requested. Checked at every phase boundary; cancellation is cooperative.
func (s *Scheduler) superseded(uri string, version int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return true
	}
	ds, ok := s.docs[uri]
	if !ok || ds.closed {
		return true
	}
	return ds.latest > version
}

// runCycle executes parse, infer and index for the document's current text
// and commits the snapshot unless it went stale along the way.
func (s *Scheduler) runCycle(uri string) {
	text, ok := s.source.Snapshot(uri)
	if !ok {
		// Closed between notification and pickup.
		return
	}
	version := text.Version

	prog, parseDiags := parser.Parse(text.Text)
	if s.superseded(uri, version) {
		log.Printf("analysis for %s@%d superseded after parse", uri, version)
		return
	}

	result := analysis.Infer(prog)
	if s.superseded(uri, version) {
		log.Printf("analysis for %s@%d superseded after inference", uri, version)
		return
	}

	idx := index.Build(prog, result)
	if s.superseded(uri, version) {
		log.Printf("analysis for %s@%d superseded after indexing", uri, version)
		return
	}

	diags := make([]diagnostics.Diagnostic, 0, len(parseDiags)+len(result.Diagnostics))
	diags = append(diags, parseDiags...)
	diags = append(diags, result.Diagnostics...)

	snapshot := &Snapshot{
		URI:         uri,
		Version:     version,
		Program:     prog,
		Analysis:    result,
		Index:       idx,
		Diagnostics: diags,
	}

	s.mu.Lock()
	ds, ok := s.docs[uri]
	if !ok || ds.closed || s.stopped {
		s.mu.Unlock()
		return
	}
	// Commits are monotonic: a cycle for an older version finishing late
	// never overwrites newer committed state.
	if ds.committed != nil && snapshot.Version < ds.committed.Version {
		s.mu.Unlock()
		return
	}
	ds.committed = snapshot
	publish := s.publish
	s.mu.Unlock()

	log.Printf("committed %s@%d: %d index entries, %d diagnostics",
		uri, version, idx.Len(), len(diags))

	if publish != nil {
		publish(*snapshot)
	}
}
