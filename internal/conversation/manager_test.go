package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/themobileprof/symptomcheck/internal/dialogue"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	base, err := knowledge.Default()
	if err != nil {
		t.Fatalf("Failed to load knowledge base: %v", err)
	}
	return NewManager(base, dialogue.Config{}, 0)
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t)

	s := m.Create("")
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("Expected a UUID session ID, got %q", s.ID)
	}
	if s.Language != "en" {
		t.Errorf("Expected default language en, got %q", s.Language)
	}
	if got := m.Create("es-MX").Language; got != "es" {
		t.Errorf("Expected language es, got %q", got)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Error("Expected the same session back")
	}

	if _, err := m.Get("missing"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	m := newTestManager(t)

	a := m.GetOrCreate("cli", "fr")
	b := m.GetOrCreate("cli", "en")
	if a != b {
		t.Error("Expected GetOrCreate to return the existing session")
	}
	if b.Language != "fr" {
		t.Errorf("Expected language fr to stick, got %q", b.Language)
	}

	c := m.GetOrCreate("", "en")
	if c.ID == "" || c == a {
		t.Error("Expected a new session for an empty ID")
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", m.Len())
	}
}

func TestSessionReset(t *testing.T) {
	m := newTestManager(t)
	s := m.Create("en")

	s.Lock()
	def := knowledge.DefaultSymptoms()[0]
	s.State.AddOrUpdate(session.Observation{Symptom: def})
	s.State.AddTurn("user", "headache")
	s.Router.Begin()
	s.Reset()
	s.Unlock()

	if s.State.Len() != 0 || len(s.State.Transcript()) != 0 {
		t.Error("Expected empty state after reset")
	}
	if s.Router.Phase() != dialogue.PhaseAwaitingInput {
		t.Errorf("Expected awaiting_input after reset, got %s", s.Router.Phase())
	}
}

func TestEndAndExpire(t *testing.T) {
	m := newTestManager(t)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	old := m.Create("en")
	clock = clock.Add(2 * time.Hour)
	fresh := m.Create("en")

	if removed := m.Expire(time.Hour); removed != 1 {
		t.Errorf("Expected 1 expired session, got %d", removed)
	}
	if _, err := m.Get(old.ID); err != ErrNotFound {
		t.Error("Expected idle session to be expired")
	}

	if !m.End(fresh.ID) {
		t.Error("Expected End to report an existing session")
	}
	if m.End(fresh.ID) {
		t.Error("Expected End to report a missing session")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	m := newTestManager(t)

	var wg sync.WaitGroup
	results := make([]*Session, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.GetOrCreate("shared", "en")
		}(i)
	}
	wg.Wait()

	for i := range results {
		if results[i] != results[0] {
			t.Fatalf("Expected a single shared session, got distinct sessions")
		}
	}
}
