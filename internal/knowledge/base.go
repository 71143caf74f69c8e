package knowledge

import (
	"strings"
)

// Base is the immutable knowledge base shared by every session. It is built
// once at startup and never mutated afterwards.
type Base struct {
	lexicon    *Lexicon
	conditions []ConditionRecord
	byName     map[string]int
	bySymptom  map[string][]int
}

// New validates and indexes a knowledge base. Any integrity problem is
// reported as a *ValidationError.
func New(defs []SymptomDefinition, conditions []ConditionRecord) (*Base, error) {
	lex, err := NewLexicon(defs)
	if err != nil {
		return nil, err
	}

	conds := make([]ConditionRecord, len(conditions))
	copy(conds, conditions)
	for i := range conds {
		conds[i].Symptoms = append([]WeightedSymptom(nil), conds[i].Symptoms...)
	}
	if problems := validateConditions(lex, conds); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	b := &Base{
		lexicon:    lex,
		conditions: conds,
		byName:     make(map[string]int, len(conds)),
		bySymptom:  make(map[string][]int),
	}
	for i, c := range conds {
		b.byName[c.Name] = i
		for _, ws := range c.Symptoms {
			b.bySymptom[ws.Symptom] = append(b.bySymptom[ws.Symptom], i)
		}
	}
	return b, nil
}

// Lexicon returns the symptom vocabulary.
func (b *Base) Lexicon() *Lexicon {
	return b.lexicon
}

// Lookup resolves a text fragment to a symptom definition.
func (b *Base) Lookup(fragment string) (SymptomDefinition, bool) {
	return b.lexicon.Lookup(fragment)
}

// Conditions returns all conditions in declaration order. Callers must treat
// the records as read-only.
func (b *Base) Conditions() []ConditionRecord {
	out := make([]ConditionRecord, len(b.conditions))
	copy(out, b.conditions)
	return out
}

// ConditionAt returns the condition at declaration index i.
func (b *Base) ConditionAt(i int) ConditionRecord {
	return b.conditions[i]
}

// Condition looks up a condition by name and returns its declaration index.
func (b *Base) Condition(name string) (ConditionRecord, int, bool) {
	idx, ok := b.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ConditionRecord{}, -1, false
	}
	return b.conditions[idx], idx, true
}

// ConditionsFor returns the declaration indexes of the conditions that
// reference symptom, in declaration order.
func (b *Base) ConditionsFor(symptom string) []int {
	return b.bySymptom[symptom]
}

// Len returns the number of conditions.
func (b *Base) Len() int {
	return len(b.conditions)
}
