package dialogue

import (
	"errors"
	"testing"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

func testBase(t *testing.T) *knowledge.Base {
	t.Helper()
	base, err := knowledge.New(
		[]knowledge.SymptomDefinition{
			{Name: "fever", Questions: []string{"How high has your temperature been?"}},
			{Name: "cough"},
			{Name: "rash"},
			{Name: "nausea"},
		},
		[]knowledge.ConditionRecord{
			{Name: "alpha", Symptoms: []knowledge.WeightedSymptom{{Symptom: "fever", Weight: 2}, {Symptom: "cough", Weight: 2}}},
			{Name: "beta", Symptoms: []knowledge.WeightedSymptom{{Symptom: "fever", Weight: 2}, {Symptom: "rash", Weight: 1}, {Symptom: "nausea", Weight: 1}}},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build knowledge base: %v", err)
	}
	return base
}

func track(t *testing.T, base *knowledge.Base, st *session.State, names ...string) {
	t.Helper()
	for _, n := range names {
		def, ok := base.Lexicon().Definition(n)
		if !ok {
			t.Fatalf("unknown symptom %q", n)
		}
		st.AddOrUpdate(session.Observation{Symptom: def})
	}
}

func score(t *testing.T, base *knowledge.Base, st *session.State) scoring.Result {
	t.Helper()
	res, err := scoring.NewDeterministic(base).Score(st)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	return res
}

func TestTurnTransitions(t *testing.T) {
	r := NewRouter(testBase(t), Config{})

	if r.Phase() != PhaseAwaitingInput {
		t.Fatalf("Expected awaiting_input, got %s", r.Phase())
	}
	if err := r.Respond(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition responding before input, got %v", err)
	}
	if err := r.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := r.Begin(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on double begin, got %v", err)
	}

	phase, err := r.Route(Features{Mentions: 2}, true)
	if err != nil || phase != PhaseRouteStatistical {
		t.Fatalf("Expected route_statistical, got %s (%v)", phase, err)
	}
	if err := r.Fallback(); err != nil {
		t.Fatalf("Fallback failed: %v", err)
	}
	if r.Phase() != PhaseRouteSimple {
		t.Errorf("Expected route_simple after fallback, got %s", r.Phase())
	}
	if err := r.Fallback(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second fallback, got %v", err)
	}
	if err := r.Respond(); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if r.Phase() != PhaseAwaitingInput {
		t.Errorf("Expected awaiting_input after finish, got %s", r.Phase())
	}

	r.Begin()
	r.Reset()
	if r.Phase() != PhaseAwaitingInput {
		t.Errorf("Expected awaiting_input after reset, got %s", r.Phase())
	}
}

func TestDecide(t *testing.T) {
	r := NewRouter(testBase(t), Config{})

	tests := []struct {
		name     string
		features Features
		model    bool
		expected Phase
	}{
		{"single short mention", Features{Mentions: 1, Words: 4, Tracked: 1}, true, PhaseRouteSimple},
		{"two mentions", Features{Mentions: 2, Words: 6, Tracked: 2}, true, PhaseRouteStatistical},
		{"long narrative", Features{Mentions: 1, Words: 14, Tracked: 1}, true, PhaseRouteStatistical},
		{"connector", Features{Mentions: 1, Words: 6, Connectors: []string{"for the past"}, Tracked: 1}, true, PhaseRouteStatistical},
		{"large session", Features{Mentions: 1, Words: 3, Tracked: 4}, true, PhaseRouteStatistical},
		{"complex without model", Features{Mentions: 3, Words: 20, Tracked: 5}, false, PhaseRouteSimple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Decide(tt.features, tt.model)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFollowUpTargetsDiscriminatingSymptom(t *testing.T) {
	base := testBase(t)
	r := NewRouter(base, Config{})
	st := session.New(0)
	track(t, base, st, "fever")

	want := []FollowUp{
		{Kind: FollowUpDiscriminate, Symptom: "cough"},
		// rash and nausea separate equally; name order decides
		{Kind: FollowUpDiscriminate, Symptom: "nausea"},
		{Kind: FollowUpDiscriminate, Symptom: "rash"},
		{Kind: FollowUpQuestion, Symptom: "fever", Text: "How high has your temperature been?"},
		{Kind: FollowUpClarify},
	}

	for i, expected := range want {
		got, ask := r.FollowUp(st, score(t, base, st))
		if !ask {
			t.Fatalf("step %d: expected a follow-up", i)
		}
		if got != expected {
			t.Errorf("step %d: expected %+v, got %+v", i, expected, got)
		}
	}
}

func TestFollowUpSkipsTrackedSymptoms(t *testing.T) {
	base := testBase(t)
	r := NewRouter(base, Config{})
	st := session.New(0)
	track(t, base, st, "fever", "cough")

	// alpha is fully matched but only two symptoms are tracked
	got, ask := r.FollowUp(st, score(t, base, st))
	if !ask {
		t.Fatal("Expected a follow-up below the minimum symptom count")
	}
	if got.Symptom == "cough" || got.Symptom == "fever" {
		t.Errorf("Expected an untracked symptom, got %q", got.Symptom)
	}
}

func TestNoFollowUpWhenConclusive(t *testing.T) {
	base := testBase(t)
	r := NewRouter(base, Config{})
	st := session.New(0)
	track(t, base, st, "fever", "cough", "rash")

	if got, ask := r.FollowUp(st, score(t, base, st)); ask {
		t.Errorf("Expected no follow-up, got %+v", got)
	}
}

func TestFollowUpEmptySession(t *testing.T) {
	r := NewRouter(testBase(t), Config{})
	got, ask := r.FollowUp(session.New(0), scoring.Result{})
	if !ask || got.Kind != FollowUpClarify {
		t.Errorf("Expected clarify prompt, got %+v (%v)", got, ask)
	}
}

func TestConfigDefaults(t *testing.T) {
	r := NewRouter(testBase(t), Config{MinSymptoms: 5})
	cfg := r.Config()
	if cfg.MinSymptoms != 5 {
		t.Errorf("Expected MinSymptoms 5, got %d", cfg.MinSymptoms)
	}
	if cfg.FollowUpConfidence != DefaultConfig.FollowUpConfidence {
		t.Errorf("Expected default follow-up confidence, got %v", cfg.FollowUpConfidence)
	}
}
