package model

import (
	"github.com/themobileprof/symptomcheck/internal/session"
)

// vectorize builds the feature vector for a set of observations: one value
// per known symptom holding its severity on a 0..1 scale, then the mean
// severity of the tracked symptoms. Unknown symptoms are ignored.
func vectorize(symptoms map[string]int, obs []session.Observation) []float64 {
	x := make([]float64, len(symptoms)+1)
	total, count := 0.0, 0
	for _, o := range obs {
		idx, ok := symptoms[o.Symptom.Name]
		if !ok {
			continue
		}
		sev := o.Severity
		if sev == session.SeverityNone {
			sev = session.SeverityModerate
		}
		x[idx] = sev.Weight() / 3
		total += sev.Weight()
		count++
	}
	if count > 0 {
		x[len(symptoms)] = total / float64(count) / 3
	}
	return x
}

func indexOf(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}
