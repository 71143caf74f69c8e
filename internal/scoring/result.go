package scoring

import (
	"sort"
	"time"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// Strategy names.
const (
	StrategyDeterministic = "deterministic"
	StrategyStatistical   = "statistical"
)

// DefaultTopK is how many matches are presented by default.
const DefaultTopK = 5

// Match is one scored condition.
type Match struct {
	Condition   knowledge.ConditionRecord
	Probability float64
	Matched     []string // tracked symptoms the condition references
	order       int
}

// SeverityPrediction is the overall severity predicted for a session.
type SeverityPrediction struct {
	Level       session.Severity
	Probability float64
}

// Result is a ranked assessment. It is never modified after Score returns.
// Probabilities are independent per condition and need not sum to one.
type Result struct {
	Matches     []Match
	Strategy    string
	GeneratedAt time.Time
	Severity    *SeverityPrediction
}

// Len returns the number of matches.
func (r Result) Len() int {
	return len(r.Matches)
}

// Best returns the highest ranked match.
func (r Result) Best() (Match, bool) {
	if len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// Top returns at most k matches. A non-positive k returns all of them.
func (r Result) Top(k int) []Match {
	if k <= 0 || k >= len(r.Matches) {
		return r.Matches
	}
	return r.Matches[:k]
}

// Strategy scores a session against the knowledge base.
type Strategy interface {
	Name() string
	Score(st *session.State) (Result, error)
}

// rank sorts by probability descending, then by matched symptom count, then
// by knowledge base declaration order.
func rank(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if len(a.Matched) != len(b.Matched) {
			return len(a.Matched) > len(b.Matched)
		}
		return a.order < b.order
	})
}

// matchedSymptoms lists the tracked symptoms c references, in the order the
// condition declares them.
func matchedSymptoms(c knowledge.ConditionRecord, st *session.State) ([]string, float64) {
	var names []string
	weight := 0.0
	for _, ws := range c.Symptoms {
		if st.Has(ws.Symptom) {
			names = append(names, ws.Symptom)
			weight += ws.Weight
		}
	}
	return names, weight
}

func clip(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
