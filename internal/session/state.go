package session

import (
	"time"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
)

// DefaultTranscriptSize bounds the number of turns kept per session.
const DefaultTranscriptSize = 200

// Duration is how long a symptom has lasted. Magnitude is zero for relative
// expressions such as "since yesterday"; Text always holds the phrase.
type Duration struct {
	Magnitude float64 `json:"magnitude,omitempty"`
	Unit      string  `json:"unit,omitempty"` // hours, days, weeks, months, years
	Text      string  `json:"text"`
}

// Observation is one tracked symptom with its modifiers.
type Observation struct {
	Symptom          knowledge.SymptomDefinition
	Severity         Severity
	SeverityExplicit bool
	Duration         *Duration
	Location         string
	Frequency        string
	FirstMentioned   time.Time
	UpdatedAt        time.Time
}

// Name returns the canonical symptom name.
func (o Observation) Name() string {
	return o.Symptom.Name
}

// Turn is one transcript entry.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the symptom state and transcript of one conversation. It is not
// safe for concurrent use; callers serialize access per session.
type State struct {
	order        []string
	observations map[string]*Observation
	transcript   []Turn
	maxTurns     int
	last         string
	asked        map[string]bool
	now          func() time.Time
}

// New creates an empty session state keeping at most maxTurns transcript
// entries. A non-positive maxTurns uses DefaultTranscriptSize.
func New(maxTurns int) *State {
	if maxTurns <= 0 {
		maxTurns = DefaultTranscriptSize
	}
	return &State{
		observations: make(map[string]*Observation),
		transcript:   make([]Turn, 0, 16),
		maxTurns:     maxTurns,
		asked:        make(map[string]bool),
		now:          time.Now,
	}
}

// AddOrUpdate tracks obs. A symptom already present is merged in place and
// keeps its position and first-mention time. It reports whether the symptom
// was newly added.
//
// Merge rules: severity is replaced when the new value was stated explicitly
// or the stored one was only a default; a non-nil duration, a non-empty
// location and a non-empty frequency replace the stored ones.
func (s *State) AddOrUpdate(obs Observation) bool {
	name := obs.Symptom.Name
	now := s.now()
	s.last = name

	existing, ok := s.observations[name]
	if !ok {
		if obs.Severity == SeverityNone {
			obs.Severity = SeverityModerate
		}
		if obs.FirstMentioned.IsZero() {
			obs.FirstMentioned = now
		}
		obs.UpdatedAt = now
		s.observations[name] = &obs
		s.order = append(s.order, name)
		return true
	}

	if obs.Severity != SeverityNone && (obs.SeverityExplicit || !existing.SeverityExplicit) {
		existing.Severity = obs.Severity
		existing.SeverityExplicit = existing.SeverityExplicit || obs.SeverityExplicit
	}
	if obs.Duration != nil {
		d := *obs.Duration
		existing.Duration = &d
	}
	if obs.Location != "" {
		existing.Location = obs.Location
	}
	if obs.Frequency != "" {
		existing.Frequency = obs.Frequency
	}
	existing.UpdatedAt = now
	return false
}

// Remove stops tracking the named symptom and reports whether it was present.
func (s *State) Remove(name string) bool {
	if _, ok := s.observations[name]; !ok {
		return false
	}
	delete(s.observations, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.last == name {
		s.last = ""
		if len(s.order) > 0 {
			s.last = s.order[len(s.order)-1]
		}
	}
	return true
}

// Clear drops every observation, the transcript and the asked questions.
func (s *State) Clear() {
	s.order = nil
	s.observations = make(map[string]*Observation)
	s.transcript = make([]Turn, 0, 16)
	s.last = ""
	s.asked = make(map[string]bool)
}

// All returns copies of the tracked observations in insertion order.
func (s *State) All() []Observation {
	out := make([]Observation, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, copyObservation(s.observations[name]))
	}
	return out
}

// Get returns a copy of the named observation.
func (s *State) Get(name string) (Observation, bool) {
	obs, ok := s.observations[name]
	if !ok {
		return Observation{}, false
	}
	return copyObservation(obs), true
}

// Has reports whether the named symptom is tracked.
func (s *State) Has(name string) bool {
	_, ok := s.observations[name]
	return ok
}

// Len returns the number of tracked symptoms.
func (s *State) Len() int {
	return len(s.order)
}

// Names returns tracked symptom names in insertion order.
func (s *State) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Last returns the most recently mentioned symptom still tracked.
func (s *State) Last() (Observation, bool) {
	if s.last == "" {
		return Observation{}, false
	}
	return s.Get(s.last)
}

// AddTurn appends a transcript entry, dropping the oldest beyond the limit.
func (s *State) AddTurn(role, text string) {
	s.transcript = append(s.transcript, Turn{Role: role, Text: text, Timestamp: s.now()})
	if len(s.transcript) > s.maxTurns {
		s.transcript = s.transcript[len(s.transcript)-s.maxTurns:]
	}
}

// Transcript returns a copy of the conversation so far.
func (s *State) Transcript() []Turn {
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// MarkAsked records that a follow-up question was asked.
func (s *State) MarkAsked(key string) {
	s.asked[key] = true
}

// WasAsked reports whether a follow-up question was already asked.
func (s *State) WasAsked(key string) bool {
	return s.asked[key]
}

// SeveritySummary averages the severity weights (mild=1, moderate=2,
// severe=3) of every tracked symptom and maps the score through t.
func (s *State) SeveritySummary(t Thresholds) Summary {
	if len(s.order) == 0 {
		return Summary{}
	}
	total := 0.0
	for _, name := range s.order {
		total += s.observations[name].Severity.Weight()
	}
	score := total / float64(len(s.order))
	return Summary{Score: score, Level: t.Level(score), Count: len(s.order)}
}

func copyObservation(o *Observation) Observation {
	out := *o
	if o.Duration != nil {
		d := *o.Duration
		out.Duration = &d
	}
	return out
}
