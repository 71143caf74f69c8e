package knowledge

import (
	"fmt"
	"strings"
)

// ValidationError lists every integrity problem found while loading a
// knowledge base. It is a configuration error and is never tolerated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "knowledge base invalid: " + e.Problems[0]
	}
	return fmt.Sprintf("knowledge base invalid (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

var validSeverities = map[string]bool{"": true, "mild": true, "moderate": true, "severe": true}

// validateConditions checks conditions against the lexicon and normalizes
// names in place.
func validateConditions(lex *Lexicon, conditions []ConditionRecord) []string {
	var problems []string
	seen := make(map[string]bool, len(conditions))

	for i := range conditions {
		c := &conditions[i]
		c.Name = strings.ToLower(strings.TrimSpace(c.Name))
		c.Severity = strings.ToLower(strings.TrimSpace(c.Severity))

		if c.Name == "" {
			problems = append(problems, fmt.Sprintf("condition #%d has no name", i+1))
			continue
		}
		if seen[c.Name] {
			problems = append(problems, fmt.Sprintf("duplicate condition %q", c.Name))
			continue
		}
		seen[c.Name] = true

		if !validSeverities[c.Severity] {
			problems = append(problems, fmt.Sprintf("condition %q has unknown severity %q", c.Name, c.Severity))
		}
		if len(c.Symptoms) == 0 {
			problems = append(problems, fmt.Sprintf("condition %q has no weighted symptoms", c.Name))
			continue
		}

		listed := make(map[string]bool, len(c.Symptoms))
		for j := range c.Symptoms {
			ws := &c.Symptoms[j]
			ws.Symptom = strings.ToLower(strings.TrimSpace(ws.Symptom))
			switch {
			case !lex.Has(ws.Symptom):
				problems = append(problems, fmt.Sprintf("condition %q references unknown symptom %q", c.Name, ws.Symptom))
			case listed[ws.Symptom]:
				problems = append(problems, fmt.Sprintf("condition %q lists symptom %q twice", c.Name, ws.Symptom))
			case ws.Weight <= 0:
				problems = append(problems, fmt.Sprintf("condition %q has non-positive weight for %q", c.Name, ws.Symptom))
			}
			listed[ws.Symptom] = true
		}
	}
	return problems
}
