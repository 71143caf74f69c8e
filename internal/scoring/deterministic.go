package scoring

import (
	"time"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// Deterministic scores each condition as the weight of its symptoms present
// in the session over its total weight. Conditions with no match are left
// out. Only conditions reachable through the reverse index are visited.
type Deterministic struct {
	base *knowledge.Base
	now  func() time.Time
}

// NewDeterministic creates the weighted-overlap strategy.
func NewDeterministic(base *knowledge.Base) *Deterministic {
	return &Deterministic{base: base, now: time.Now}
}

func (d *Deterministic) Name() string {
	return StrategyDeterministic
}

func (d *Deterministic) Score(st *session.State) (Result, error) {
	result := Result{Strategy: StrategyDeterministic, GeneratedAt: d.now().UTC()}
	if st == nil || st.Len() == 0 {
		return result, nil
	}

	candidates := make(map[int]bool)
	for _, name := range st.Names() {
		for _, idx := range d.base.ConditionsFor(name) {
			candidates[idx] = true
		}
	}

	matches := make([]Match, 0, len(candidates))
	for idx := range candidates {
		c := d.base.ConditionAt(idx)
		total := c.TotalWeight()
		if total <= 0 {
			continue
		}
		names, weight := matchedSymptoms(c, st)
		if len(names) == 0 {
			continue
		}
		matches = append(matches, Match{
			Condition:   c,
			Probability: clip(weight / total),
			Matched:     names,
			order:       idx,
		})
	}

	rank(matches)
	result.Matches = matches
	return result, nil
}
