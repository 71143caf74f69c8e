package session

import (
	"fmt"
	"strings"
)

// Severity is an ordered symptom severity level.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return "none"
	}
}

// Weight is the numeric contribution of s to a severity summary.
func (s Severity) Weight() float64 {
	return float64(s)
}

// ParseSeverity parses a severity name. The empty string parses as
// SeverityNone.
func ParseSeverity(text string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "none":
		return SeverityNone, nil
	case "mild":
		return SeverityMild, nil
	case "moderate":
		return SeverityModerate, nil
	case "severe":
		return SeveritySevere, nil
	}
	return SeverityNone, fmt.Errorf("unknown severity %q", text)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Thresholds map an averaged severity score to a level. A score below
// MildBelow is mild, below ModerateBelow is moderate, anything else severe.
type Thresholds struct {
	MildBelow     float64 `yaml:"mild_below" json:"mild_below"`
	ModerateBelow float64 `yaml:"moderate_below" json:"moderate_below"`
}

// DefaultThresholds are the stock severity cut-offs.
var DefaultThresholds = Thresholds{MildBelow: 1.5, ModerateBelow: 2.5}

// Level maps score to a severity level. Zero maps to SeverityNone.
func (t Thresholds) Level(score float64) Severity {
	switch {
	case score <= 0:
		return SeverityNone
	case score < t.MildBelow:
		return SeverityMild
	case score < t.ModerateBelow:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Summary is the aggregate severity of a session.
type Summary struct {
	Score float64  `json:"score"`
	Level Severity `json:"level"`
	Count int      `json:"count"`
}
