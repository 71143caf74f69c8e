package dialogue

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// ErrInvalidTransition is returned when a turn step is taken out of order.
var ErrInvalidTransition = errors.New("invalid dialogue transition")

// Phase is the position of a session within one conversational turn.
type Phase int

const (
	PhaseAwaitingInput Phase = iota
	PhaseExtracting
	PhaseRouteSimple
	PhaseRouteStatistical
	PhaseResponding
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseExtracting:
		return "extracting"
	case PhaseRouteSimple:
		return "route_simple"
	case PhaseRouteStatistical:
		return "route_statistical"
	case PhaseResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// Extracting may skip scoring entirely (greetings, nothing recognized), and a
// failed statistical run drops back to the simple route.
var transitions = map[Phase][]Phase{
	PhaseAwaitingInput:    {PhaseExtracting},
	PhaseExtracting:       {PhaseRouteSimple, PhaseRouteStatistical, PhaseResponding},
	PhaseRouteSimple:      {PhaseResponding},
	PhaseRouteStatistical: {PhaseRouteSimple, PhaseResponding},
	PhaseResponding:       {PhaseAwaitingInput},
}

// Config holds the routing and follow-up tuning constants.
type Config struct {
	FollowUpConfidence float64 `yaml:"follow_up_confidence"`
	MinSymptoms        int     `yaml:"min_symptoms"`
	ComplexMentions    int     `yaml:"complex_mentions"`
	ComplexWords       int     `yaml:"complex_words"`
	ComplexSession     int     `yaml:"complex_session"`
}

// DefaultConfig is used for any zero field of a Config.
var DefaultConfig = Config{
	FollowUpConfidence: 0.6,
	MinSymptoms:        3,
	ComplexMentions:    2,
	ComplexWords:       10,
	ComplexSession:     4,
}

func (c Config) withDefaults() Config {
	if c.FollowUpConfidence <= 0 {
		c.FollowUpConfidence = DefaultConfig.FollowUpConfidence
	}
	if c.MinSymptoms <= 0 {
		c.MinSymptoms = DefaultConfig.MinSymptoms
	}
	if c.ComplexMentions <= 0 {
		c.ComplexMentions = DefaultConfig.ComplexMentions
	}
	if c.ComplexWords <= 0 {
		c.ComplexWords = DefaultConfig.ComplexWords
	}
	if c.ComplexSession <= 0 {
		c.ComplexSession = DefaultConfig.ComplexSession
	}
	return c
}

// Features summarizes an utterance for routing.
type Features struct {
	Mentions   int
	Words      int
	Connectors []string
	Tracked    int // symptoms in the session after the update
}

// FollowUpKind says what a follow-up asks about.
type FollowUpKind string

const (
	// FollowUpDiscriminate asks about a symptom that separates the leading
	// candidates.
	FollowUpDiscriminate FollowUpKind = "discriminate"
	// FollowUpQuestion is a symptom-specific question from the lexicon.
	FollowUpQuestion FollowUpKind = "question"
	// FollowUpClarify is the generic prompt for more detail.
	FollowUpClarify FollowUpKind = "clarify"
)

// FollowUp is the question the router wants asked next. Text is only set
// for FollowUpQuestion; the other kinds are rendered by the caller.
type FollowUp struct {
	Kind    FollowUpKind `json:"kind"`
	Symptom string       `json:"symptom,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// Router drives one session through the turn phases and picks the scoring
// path and follow-up question. It is owned by a single session.
type Router struct {
	base  *knowledge.Base
	cfg   Config
	phase Phase
}

// NewRouter creates a router in PhaseAwaitingInput.
func NewRouter(base *knowledge.Base, cfg Config) *Router {
	return &Router{base: base, cfg: cfg.withDefaults(), phase: PhaseAwaitingInput}
}

// Phase returns the current phase.
func (r *Router) Phase() Phase {
	return r.phase
}

// Config returns the effective configuration.
func (r *Router) Config() Config {
	return r.cfg
}

func (r *Router) transition(to Phase) error {
	for _, next := range transitions[r.phase] {
		if next == to {
			r.phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.phase, to)
}

// Begin starts a turn.
func (r *Router) Begin() error {
	return r.transition(PhaseExtracting)
}

// Route selects the scoring path for the extracted utterance and moves to
// the matching route phase.
func (r *Router) Route(f Features, modelAvailable bool) (Phase, error) {
	next := r.Decide(f, modelAvailable)
	if err := r.transition(next); err != nil {
		return r.phase, err
	}
	return next, nil
}

// Decide reports which route f calls for without changing phase. Complex
// utterances go to the statistical path when a model is loaded.
func (r *Router) Decide(f Features, modelAvailable bool) Phase {
	if !modelAvailable {
		return PhaseRouteSimple
	}
	if f.Mentions >= r.cfg.ComplexMentions ||
		f.Words > r.cfg.ComplexWords ||
		len(f.Connectors) > 0 ||
		f.Tracked >= r.cfg.ComplexSession {
		return PhaseRouteStatistical
	}
	return PhaseRouteSimple
}

// Fallback moves a statistical turn to the simple route.
func (r *Router) Fallback() error {
	if r.phase != PhaseRouteStatistical {
		return fmt.Errorf("%w: fallback from %s", ErrInvalidTransition, r.phase)
	}
	return r.transition(PhaseRouteSimple)
}

// Respond marks scoring as done.
func (r *Router) Respond() error {
	return r.transition(PhaseResponding)
}

// Finish ends the turn.
func (r *Router) Finish() error {
	return r.transition(PhaseAwaitingInput)
}

// Reset returns to PhaseAwaitingInput from any phase.
func (r *Router) Reset() {
	r.phase = PhaseAwaitingInput
}

// FollowUp decides whether res is conclusive enough and, if not, which
// question to ask. Questions already asked in st are not repeated.
func (r *Router) FollowUp(st *session.State, res scoring.Result) (FollowUp, bool) {
	best, ok := res.Best()
	if ok && best.Probability >= r.cfg.FollowUpConfidence && st.Len() >= r.cfg.MinSymptoms {
		return FollowUp{}, false
	}
	if st.Len() == 0 {
		return FollowUp{Kind: FollowUpClarify}, true
	}

	if name, ok := r.discriminating(st, res); ok {
		st.MarkAsked(askedSymptomKey(name))
		return FollowUp{Kind: FollowUpDiscriminate, Symptom: name}, true
	}

	if last, ok := st.Last(); ok {
		for i, q := range last.Symptom.Questions {
			key := fmt.Sprintf("question:%s:%d", last.Name(), i)
			if st.WasAsked(key) {
				continue
			}
			st.MarkAsked(key)
			return FollowUp{Kind: FollowUpQuestion, Symptom: last.Name(), Text: q}, true
		}
	}
	return FollowUp{Kind: FollowUpClarify}, true
}

type candidate struct {
	name     string
	gap      float64
	combined float64
}

// discriminating picks the untracked symptom with the largest difference in
// normalized weight between the two leading conditions. A single candidate
// condition is compared against an empty one.
func (r *Router) discriminating(st *session.State, res scoring.Result) (string, bool) {
	if res.Len() == 0 {
		return "", false
	}
	a := res.Matches[0].Condition
	var b knowledge.ConditionRecord
	if res.Len() > 1 {
		b = res.Matches[1].Condition
	}
	totA, totB := a.TotalWeight(), b.TotalWeight()

	norm := func(c knowledge.ConditionRecord, total float64, name string) float64 {
		w, ok := c.Weight(name)
		if !ok || total <= 0 {
			return 0
		}
		return w / total
	}

	seen := make(map[string]bool)
	var cands []candidate
	for _, list := range [][]knowledge.WeightedSymptom{a.Symptoms, b.Symptoms} {
		for _, ws := range list {
			if seen[ws.Symptom] || st.Has(ws.Symptom) || st.WasAsked(askedSymptomKey(ws.Symptom)) {
				continue
			}
			seen[ws.Symptom] = true
			na, nb := norm(a, totA, ws.Symptom), norm(b, totB, ws.Symptom)
			gap := math.Abs(na - nb)
			if gap == 0 {
				continue
			}
			cands = append(cands, candidate{name: ws.Symptom, gap: gap, combined: na + nb})
		}
	}
	if len(cands) == 0 {
		return "", false
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].gap != cands[j].gap {
			return cands[i].gap > cands[j].gap
		}
		if cands[i].combined != cands[j].combined {
			return cands[i].combined > cands[j].combined
		}
		return cands[i].name < cands[j].name
	})
	return cands[0].name, true
}

func askedSymptomKey(name string) string {
	return "symptom:" + name
}
