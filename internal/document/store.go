// Package document holds the authoritative text of every open document.
//
// The Store is the only component that mutates document text; everything
// else reads immutable snapshots. Versions are the client's monotonic
// counters; edits arriving with a non-advancing version are rejected so an
// out-of-order change can never corrupt the current buffer.
package document

import (
	"fmt"
	"sync"
)

// ErrUnknownDocument is returned for operations on a URI that is not open.
var ErrUnknownDocument = fmt.Errorf("document not open")

// StaleVersionError reports an edit whose version does not advance the
// document. The triggering event should be dropped; the document keeps its
// current state.
type StaleVersionError struct {
	URI     string
	Current int32
	Got     int32
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("stale edit for %s: version %d does not advance current version %d",
		e.URI, e.Got, e.Current)
}

// Store manages all open documents. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*document)}
}

// Open creates a document, replacing any prior state for the URI.
func (s *Store) Open(uri string, text string, version int32) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &document{uri: uri, version: version, text: text}
	s.docs[uri] = doc
	return doc.snapshot()
}

// Apply applies a batch of changes at the given version. The version must be
// greater than the document's current version or the whole batch is
// rejected with a StaleVersionError.
func (s *Store) Apply(uri string, version int32, changes []Change) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return Snapshot{}, fmt.Errorf("apply edit to %s: %w", uri, ErrUnknownDocument)
	}
	if version <= doc.version {
		return Snapshot{}, &StaleVersionError{URI: uri, Current: doc.version, Got: version}
	}

	doc.apply(changes)
	doc.version = version
	return doc.snapshot(), nil
}

// Close discards all state for the URI. Closing an unopened document is not
// an error.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Snapshot returns an immutable snapshot of the document's current text.
// Safe to call concurrently with edits; it never observes a half-applied
// change batch.
func (s *Store) Snapshot(uri string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[uri]
	if !ok {
		return Snapshot{}, false
	}
	return doc.snapshot(), true
}

// CloseAll discards every open document.
func (s *Store) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*document)
}

// URIs returns the URIs of all open documents.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}
