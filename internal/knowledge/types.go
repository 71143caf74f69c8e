package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SymptomDefinition is one entry of the symptom vocabulary.
type SymptomDefinition struct {
	Name          string   `yaml:"name" json:"name"`
	Aliases       []string `yaml:"aliases" json:"aliases"`
	Category      string   `yaml:"category" json:"category"`
	DefaultWeight float64  `yaml:"weight" json:"weight"`
	Emergency     bool     `yaml:"emergency" json:"emergency"`
	Questions     []string `yaml:"questions" json:"questions"`
}

// Label returns the human readable form of the canonical name.
func (d SymptomDefinition) Label() string {
	return strings.ReplaceAll(d.Name, "_", " ")
}

// WeightedSymptom links a condition to one of its symptoms.
type WeightedSymptom struct {
	Symptom string  `yaml:"symptom" json:"symptom"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// Recommendations is the care advice attached to a condition.
type Recommendations struct {
	Immediate  []string `yaml:"immediate" json:"immediate"`
	SelfCare   []string `yaml:"self_care" json:"self_care"`
	Escalation []string `yaml:"escalation" json:"escalation"`
}

// ConditionRecord is a candidate diagnosis with its weighted symptom profile.
type ConditionRecord struct {
	Name            string            `yaml:"name" json:"name"`
	DisplayName     string            `yaml:"display_name" json:"display_name"`
	Category        string            `yaml:"category" json:"category"`
	Description     string            `yaml:"description" json:"description"`
	Severity        string            `yaml:"severity" json:"severity"` // mild, moderate or severe
	Symptoms        []WeightedSymptom `yaml:"symptoms" json:"symptoms"`
	Recommendations Recommendations   `yaml:"recommendations" json:"recommendations"`
}

// Title returns DisplayName, falling back to a prettified Name.
func (c ConditionRecord) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	words := strings.Fields(strings.ReplaceAll(c.Name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// TotalWeight sums every symptom weight of the condition.
func (c ConditionRecord) TotalWeight() float64 {
	total := 0.0
	for _, ws := range c.Symptoms {
		total += ws.Weight
	}
	return total
}

// Weight returns the weight the condition assigns to symptom.
func (c ConditionRecord) Weight(symptom string) (float64, bool) {
	for _, ws := range c.Symptoms {
		if ws.Symptom == symptom {
			return ws.Weight, true
		}
	}
	return 0, false
}
