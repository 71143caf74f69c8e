package report

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// FormatVersion identifies the JSON layout of Record.
const FormatVersion = 1

// Symptom is one tracked observation in an export.
type Symptom struct {
	Name           string    `json:"name"`
	Label          string    `json:"label"`
	Category       string    `json:"category,omitempty"`
	Severity       string    `json:"severity"`
	Duration       string    `json:"duration,omitempty"`
	Location       string    `json:"location,omitempty"`
	Frequency      string    `json:"frequency,omitempty"`
	FirstMentioned time.Time `json:"first_mentioned"`
}

// Condition is one ranked candidate. Probability is rounded to two decimals.
type Condition struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Probability float64  `json:"probability"`
	Matched     []string `json:"matched_symptoms"`
}

// Recommendations is the care advice of the top ranked condition.
type Recommendations struct {
	Condition  string   `json:"condition"`
	Immediate  []string `json:"immediate,omitempty"`
	SelfCare   []string `json:"self_care,omitempty"`
	Escalation []string `json:"escalation,omitempty"`
}

// Severity is the overall severity of the session. Predicted is only set
// when the statistical model produced the assessment.
type Severity struct {
	Score                float64 `json:"score"`
	Level                string  `json:"level"`
	Predicted            string  `json:"predicted,omitempty"`
	PredictedProbability float64 `json:"predicted_probability,omitempty"`
}

// Turn is one redacted transcript entry.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is a self-contained assessment export. Field names are stable.
type Record struct {
	Version         int              `json:"version"`
	ID              string           `json:"id,omitempty"`
	SessionID       string           `json:"session_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Strategy        string           `json:"strategy,omitempty"`
	Symptoms        []Symptom        `json:"symptoms"`
	Conditions      []Condition      `json:"conditions"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	Severity        Severity         `json:"severity"`
	Emergency       bool             `json:"emergency"`
	Disclaimer      string           `json:"disclaimer,omitempty"`
	Transcript      []Turn           `json:"transcript,omitempty"`
}

// Input gathers what Build needs from a session.
type Input struct {
	SessionID    string
	Observations []session.Observation
	Result       scoring.Result
	Summary      session.Summary
	Transcript   []session.Turn
	Redact       func(string) string
	TopK         int
	Emergency    bool
	Disclaimer   string
	GeneratedAt  time.Time
}

// Round rounds a probability to two decimals.
func Round(p float64) float64 {
	return math.Round(p*100) / 100
}

// Build assembles a Record. Times are stored in UTC.
func Build(in Input) Record {
	rec := Record{
		Version:     FormatVersion,
		SessionID:   in.SessionID,
		GeneratedAt: in.GeneratedAt.UTC(),
		Strategy:    in.Result.Strategy,
		Symptoms:    Symptoms(in.Observations),
		Conditions:  Conditions(in.Result.Top(in.TopK)),
		Severity: Severity{
			Score: Round(in.Summary.Score),
			Level: in.Summary.Level.String(),
		},
		Emergency:  in.Emergency,
		Disclaimer: in.Disclaimer,
	}

	if best, ok := in.Result.Best(); ok {
		c := best.Condition
		rec.Recommendations = &Recommendations{
			Condition:  c.Name,
			Immediate:  c.Recommendations.Immediate,
			SelfCare:   c.Recommendations.SelfCare,
			Escalation: c.Recommendations.Escalation,
		}
	}
	if p := in.Result.Severity; p != nil {
		rec.Severity.Predicted = p.Level.String()
		rec.Severity.PredictedProbability = Round(p.Probability)
	}

	for _, t := range in.Transcript {
		text := t.Text
		if in.Redact != nil {
			text = in.Redact(text)
		}
		rec.Transcript = append(rec.Transcript, Turn{Role: t.Role, Text: text, Timestamp: t.Timestamp.UTC()})
	}
	return rec
}

// Symptoms converts observations to their export form.
func Symptoms(obs []session.Observation) []Symptom {
	out := make([]Symptom, 0, len(obs))
	for _, o := range obs {
		s := Symptom{
			Name:           o.Name(),
			Label:          o.Symptom.Label(),
			Category:       o.Symptom.Category,
			Severity:       o.Severity.String(),
			Location:       o.Location,
			Frequency:      o.Frequency,
			FirstMentioned: o.FirstMentioned.UTC(),
		}
		if o.Duration != nil {
			s.Duration = o.Duration.Text
		}
		out = append(out, s)
	}
	return out
}

// Conditions converts ranked matches to their export form.
func Conditions(matches []scoring.Match) []Condition {
	out := make([]Condition, 0, len(matches))
	for _, m := range matches {
		matched := m.Matched
		if matched == nil {
			matched = []string{}
		}
		out = append(out, Condition{
			Name:        m.Condition.Name,
			DisplayName: m.Condition.Title(),
			Category:    m.Condition.Category,
			Severity:    m.Condition.Severity,
			Probability: Round(m.Probability),
			Matched:     matched,
		})
	}
	return out
}

// JSON encodes the record with indentation.
func (r Record) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// Parse decodes a record produced by JSON.
func Parse(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode report: %w", err)
	}
	if r.Version != FormatVersion {
		return Record{}, fmt.Errorf("unsupported report version %d", r.Version)
	}
	return r, nil
}
