package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themobileprof/symptomcheck/internal/dialogue"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/language"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session is one conversation. Callers must hold Lock while touching State,
// Router or Result; the manager only guards the session index.
type Session struct {
	ID        string
	Language  string
	CreatedAt time.Time

	mu        sync.Mutex
	State     *session.State
	Router    *dialogue.Router
	Result    *scoring.Result // last assessment, nil until scored or after a change
	Emergency bool            // a red flag was raised since the last reset
	Saved     *scoring.Result // Result as of the last history save
	SavedID   string
	lastSeen  time.Time
}

// Lock serializes turns on the session
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Reset clears symptoms, transcript and routing state. The caller holds the
// lock.
func (s *Session) Reset() {
	s.State.Clear()
	s.Router.Reset()
	s.Result = nil
	s.Emergency = false
	s.Saved = nil
	s.SavedID = ""
}

// Manager tracks sessions by ID
type Manager struct {
	base     *knowledge.Base
	cfg      dialogue.Config
	maxTurns int
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager whose routers use cfg
func NewManager(base *knowledge.Base, cfg dialogue.Config, maxTurns int) *Manager {
	return &Manager{
		base:     base,
		cfg:      cfg,
		maxTurns: maxTurns,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) newSession(id, lang string) *Session {
	lang = language.Validate(lang).Code
	now := m.now()
	return &Session{
		ID:        id,
		Language:  lang,
		CreatedAt: now,
		State:     session.New(m.maxTurns),
		Router:    dialogue.NewRouter(m.base, m.cfg),
		lastSeen:  now,
	}
}

// Create starts a session with a fresh random ID
func (m *Manager) Create(lang string) *Session {
	s := m.newSession(uuid.NewString(), lang)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves an existing session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	m.mu.Lock()
	s.lastSeen = m.now()
	m.mu.Unlock()
	return s, nil
}

// GetOrCreate retrieves a session or creates it under the given ID. An empty
// ID always creates a new session.
func (m *Manager) GetOrCreate(id, lang string) *Session {
	if id == "" {
		return m.Create(lang)
	}
	if s, err := m.Get(id); err == nil {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := m.newSession(id, lang)
	m.sessions[id] = s
	return s
}

// End forgets a session and reports whether it existed
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Expire(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	removed := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
