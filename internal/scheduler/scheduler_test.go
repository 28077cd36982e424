package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"jsastad/internal/document"
	"jsastad/internal/parser"
	"jsastad/internal/scheduler"
)

const uri = "file:///test.jsasta"

// fakeSource hands out whatever text the test last set, mimicking the
// document store.
type fakeSource struct {
	mu   sync.Mutex
	docs map[string]document.Snapshot
}

func newFakeSource() *fakeSource {
	return &fakeSource{docs: make(map[string]document.Snapshot)}
}

func (f *fakeSource) set(uri, text string, version int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[uri] = document.Snapshot{URI: uri, Version: version, Text: text}
}

func (f *fakeSource) Snapshot(uri string) (document.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.docs[uri]
	return snap, ok
}

// waitFor polls until the condition holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCommitsSnapshot(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "function main(): void {\n}\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	defer s.Stop()

	s.NotifyChanged(uri, 1)

	waitFor(t, "first commit", func() bool {
		_, ok := s.Snapshot(uri)
		return ok
	})

	snap, _ := s.Snapshot(uri)
	if snap.Version != 1 {
		t.Fatalf("expected version 1, got %d", snap.Version)
	}
	if snap.Program == nil || snap.Analysis == nil || snap.Index == nil {
		t.Fatal("committed snapshot is incomplete")
	}
	if len(snap.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", snap.Diagnostics)
	}
}

// An edit that breaks the document surfaces its diagnostics in the next
// committed snapshot, and a later fix clears them again.
func TestDiagnosticsFollowEdits(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "var x = 1;\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	defer s.Stop()

	s.NotifyChanged(uri, 1)
	waitFor(t, "clean commit", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 1
	})

	source.set(uri, "var x = nope;\n", 2)
	s.NotifyChanged(uri, 2)
	waitFor(t, "commit with diagnostics", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 2
	})
	snap, _ := s.Snapshot(uri)
	if len(snap.Diagnostics) == 0 {
		t.Fatal("expected an unresolved identifier diagnostic")
	}

	source.set(uri, "var x = 1;\n", 3)
	s.NotifyChanged(uri, 3)
	waitFor(t, "clean commit after fix", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 3 && len(snap.Diagnostics) == 0
	})
}

// Committed versions never go backwards, regardless of how notifications
// interleave with running cycles.
func TestMonotonicVersions(t *testing.T) {
	source := newFakeSource()

	s := scheduler.New(source, 0)

	var (
		mu   sync.Mutex
		last int32 = -1
		bad  bool
	)
	s.SetPublisher(func(snap scheduler.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Version < last {
			bad = true
		}
		last = snap.Version
	})

	s.Run()
	defer s.Stop()

	for v := int32(1); v <= 20; v++ {
		source.set(uri, "var x = 1;\n", v)
		s.NotifyChanged(uri, v)
	}

	waitFor(t, "latest version", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 20
	})

	mu.Lock()
	defer mu.Unlock()
	if bad {
		t.Fatal("published versions went backwards")
	}
}

func TestCancelDiscardsState(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "var x = 1;\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	defer s.Stop()

	s.NotifyChanged(uri, 1)
	waitFor(t, "commit", func() bool {
		_, ok := s.Snapshot(uri)
		return ok
	})

	s.Cancel(uri)
	if _, ok := s.Snapshot(uri); ok {
		t.Fatal("cancel must discard the committed snapshot")
	}
}

func TestStopHaltsWorker(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "var x = 1;\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	s.Stop()

	// Notifications after Stop are ignored.
	s.NotifyChanged(uri, 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Snapshot(uri); ok {
		t.Fatal("no commit expected after Stop")
	}
}

// With a debounce window, a burst of notifications coalesces into analysis
// of the newest text.
func TestDebounceCoalesces(t *testing.T) {
	source := newFakeSource()

	s := scheduler.New(source, 30*time.Millisecond)
	s.Run()
	defer s.Stop()

	for v := int32(1); v <= 5; v++ {
		source.set(uri, "var x = 1;\n", v)
		s.NotifyChanged(uri, v)
	}

	waitFor(t, "coalesced commit", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 5
	})
}

// Replacing one string literal re-analyzes the document; occurrences the
// edit did not touch still resolve to the same declarations in the new
// committed snapshot.
func TestEditKeepsUnaffectedResolutions(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "external function print(text: string): void;\n\nfunction main(): void {\n\tprint(\"World\");\n}\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	defer s.Stop()

	printDecl := parser.Span{
		Start: parser.Position{Line: 0, Character: 18},
		End:   parser.Position{Line: 0, Character: 23},
	}
	callPos := parser.Position{Line: 3, Character: 2}

	s.NotifyChanged(uri, 1)
	waitFor(t, "first commit", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 1
	})

	snap, _ := s.Snapshot(uri)
	decl, ok := snap.Index.Definition(callPos)
	if !ok || decl != printDecl {
		t.Fatalf("expected %v before the edit, got %v (%v)", printDecl, decl, ok)
	}

	// Only the literal changes; every other occurrence keeps its position.
	source.set(uri, "external function print(text: string): void;\n\nfunction main(): void {\n\tprint(\"Universe\");\n}\n", 2)
	s.NotifyChanged(uri, 2)
	waitFor(t, "commit after edit", func() bool {
		snap, ok := s.Snapshot(uri)
		return ok && snap.Version == 2
	})

	snap, _ = s.Snapshot(uri)
	if len(snap.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", snap.Diagnostics)
	}
	decl, ok = snap.Index.Definition(callPos)
	if !ok || decl != printDecl {
		t.Fatalf("expected %v after the edit, got %v (%v)", printDecl, decl, ok)
	}
}

// A document ending in an unterminated struct still commits: the snapshot
// carries the syntax diagnostics and its index resolves the declarations
// before the broken region.
func TestBrokenTailStillCommits(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "function inc(x: i32): i32 {\n\treturn x + 1;\n}\n\nstruct Broken {\n\tname: string;\n", 1)

	s := scheduler.New(source, 0)
	s.Run()
	defer s.Stop()

	s.NotifyChanged(uri, 1)
	waitFor(t, "commit", func() bool {
		_, ok := s.Snapshot(uri)
		return ok
	})

	snap, _ := s.Snapshot(uri)
	if len(snap.Diagnostics) == 0 {
		t.Fatal("expected a diagnostic for the unterminated struct")
	}

	// `x` in the body still resolves to the parameter declaration.
	decl, ok := snap.Index.Definition(parser.Position{Line: 1, Character: 8})
	if !ok {
		t.Fatal("expected a definition despite the broken tail")
	}
	want := parser.Span{
		Start: parser.Position{Line: 0, Character: 13},
		End:   parser.Position{Line: 0, Character: 14},
	}
	if decl != want {
		t.Fatalf("expected parameter declaration %v, got %v", want, decl)
	}
}

func TestPublisherReceivesCommits(t *testing.T) {
	source := newFakeSource()
	source.set(uri, "var x = 1;\n", 1)

	s := scheduler.New(source, 0)
	published := make(chan scheduler.Snapshot, 16)
	s.SetPublisher(func(snap scheduler.Snapshot) {
		published <- snap
	})
	s.Run()
	defer s.Stop()

	s.NotifyChanged(uri, 1)

	select {
	case snap := <-published:
		if snap.URI != uri || snap.Version != 1 {
			t.Fatalf("unexpected published snapshot: %s@%d", snap.URI, snap.Version)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot published")
	}
}
