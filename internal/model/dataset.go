package model

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// Observed is one symptom of a training example.
type Observed struct {
	Name     string           `json:"name"`
	Severity session.Severity `json:"severity"`
}

// Example is one labeled training record.
type Example struct {
	Symptoms  []Observed       `json:"symptoms"`
	Condition string           `json:"condition"`
	Severity  session.Severity `json:"severity"`
}

func (e Example) observations(lex *knowledge.Lexicon) []session.Observation {
	out := make([]session.Observation, 0, len(e.Symptoms))
	for _, s := range e.Symptoms {
		def, ok := lex.Definition(s.Name)
		if !ok {
			def = knowledge.SymptomDefinition{Name: s.Name}
		}
		out = append(out, session.Observation{Symptom: def, Severity: s.Severity})
	}
	return out
}

// LoadDataset reads JSON-lines examples. Blank lines and lines starting with
// '#' are skipped.
func LoadDataset(r io.Reader) ([]Example, error) {
	var out []Example
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var ex Example
		if err := json.Unmarshal([]byte(text), &ex); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		out = append(out, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return out, nil
}

// LoadDatasetFile reads a JSON-lines dataset from path.
func LoadDatasetFile(path string) ([]Example, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer fh.Close()
	return LoadDataset(fh)
}

// WriteDataset writes examples as JSON lines.
func WriteDataset(w io.Writer, examples []Example) error {
	enc := json.NewEncoder(w)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("failed to write example: %w", err)
		}
	}
	return nil
}

// ValidateDataset checks every label and symptom against the knowledge base.
func ValidateDataset(base *knowledge.Base, examples []Example) error {
	var problems []string
	for i, ex := range examples {
		if _, _, ok := base.Condition(ex.Condition); !ok {
			problems = append(problems, fmt.Sprintf("example %d: unknown condition %q", i+1, ex.Condition))
		}
		if ex.Severity == session.SeverityNone {
			problems = append(problems, fmt.Sprintf("example %d: missing severity label", i+1))
		}
		if len(ex.Symptoms) == 0 {
			problems = append(problems, fmt.Sprintf("example %d: no symptoms", i+1))
		}
		for _, s := range ex.Symptoms {
			if !base.Lexicon().Has(s.Name) {
				problems = append(problems, fmt.Sprintf("example %d: unknown symptom %q", i+1, s.Name))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrLabelMismatch, strings.Join(problems, "; "))
	}
	return nil
}

var conditionRank = map[string]session.Severity{
	"mild":     session.SeverityMild,
	"moderate": session.SeverityModerate,
	"severe":   session.SeveritySevere,
}

// Synthesize samples perCondition labeled examples for every condition of
// the knowledge base. Each symptom is kept with a probability proportional to
// its weight; observation severities scatter around the condition's own
// severity. The overall severity label is the level of the mean of the
// condition severity and the mean observation severity. The output depends
// only on base, seed and perCondition.
func Synthesize(base *knowledge.Base, seed int64, perCondition int) []Example {
	rng := rand.New(rand.NewSource(seed))
	defs := base.Lexicon().Definitions()
	out := make([]Example, 0, base.Len()*perCondition)

	for _, c := range base.Conditions() {
		rank, ok := conditionRank[c.Severity]
		if !ok {
			rank = session.SeverityModerate
		}
		maxWeight := 0.0
		for _, ws := range c.Symptoms {
			if ws.Weight > maxWeight {
				maxWeight = ws.Weight
			}
		}

		for n := 0; n < perCondition; n++ {
			ex := Example{Condition: c.Name}
			for _, ws := range c.Symptoms {
				if rng.Float64() < 0.35+0.6*ws.Weight/maxWeight {
					ex.Symptoms = append(ex.Symptoms, Observed{Name: ws.Symptom, Severity: jitter(rng, rank)})
				}
			}
			if len(ex.Symptoms) == 0 {
				top := c.Symptoms[0]
				for _, ws := range c.Symptoms {
					if ws.Weight > top.Weight {
						top = ws
					}
				}
				ex.Symptoms = append(ex.Symptoms, Observed{Name: top.Symptom, Severity: jitter(rng, rank)})
			}
			if rng.Float64() < 0.1 {
				noise := defs[rng.Intn(len(defs))].Name
				if !hasSymptom(ex.Symptoms, noise) {
					ex.Symptoms = append(ex.Symptoms, Observed{Name: noise, Severity: session.SeverityMild})
				}
			}

			total := 0.0
			for _, s := range ex.Symptoms {
				total += s.Severity.Weight()
			}
			mean := total / float64(len(ex.Symptoms))
			ex.Severity = session.DefaultThresholds.Level((rank.Weight() + mean) / 2)
			out = append(out, ex)
		}
	}
	return out
}

func jitter(rng *rand.Rand, rank session.Severity) session.Severity {
	s := rank + session.Severity(rng.Intn(3)-1)
	if s < session.SeverityMild {
		return session.SeverityMild
	}
	if s > session.SeveritySevere {
		return session.SeveritySevere
	}
	return s
}

func hasSymptom(list []Observed, name string) bool {
	for _, s := range list {
		if s.Name == name {
			return true
		}
	}
	return false
}
