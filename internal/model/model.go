package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// FormatVersion is bumped whenever the persisted layout changes.
const FormatVersion = 1

var (
	// ErrModelUnavailable means no usable persisted model exists. Callers
	// fall back to deterministic scoring.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrLabelMismatch means the model or dataset references labels the
	// knowledge base does not define.
	ErrLabelMismatch = errors.New("model labels do not match knowledge base")
	// ErrTrainingInProgress is returned when a background retrain is
	// already running.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Model is a trained pair of classifiers: one over conditions and one over
// overall severity. It is immutable once built.
type Model struct {
	Version    int       `json:"version"`
	Seed       int64     `json:"seed"`
	TrainedAt  time.Time `json:"trained_at"`
	Examples   int       `json:"examples"`
	Symptoms   []string  `json:"symptoms"`
	Conditions *Softmax  `json:"conditions"`
	Severity   *Softmax  `json:"severity"`

	index map[string]int
}

func (m *Model) init() error {
	if m.Version != FormatVersion {
		return fmt.Errorf("unsupported model version %d", m.Version)
	}
	width := len(m.Symptoms) + 1
	if m.Conditions.dims() != width || m.Severity.dims() != width {
		return errors.New("classifier dimensions do not match symptom vocabulary")
	}
	for _, label := range m.Severity.Labels {
		if _, err := session.ParseSeverity(label); err != nil {
			return fmt.Errorf("severity classifier: %w", err)
		}
	}
	m.index = indexOf(m.Symptoms)
	return nil
}

// PredictConditions returns every condition label with its probability,
// most likely first.
func (m *Model) PredictConditions(obs []session.Observation) ([]scoring.Prediction, error) {
	probs := m.Conditions.Predict(vectorize(m.index, obs))
	out := make([]scoring.Prediction, len(probs))
	for i, p := range probs {
		out[i] = scoring.Prediction{Label: m.Conditions.Labels[i], Probability: p}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out, nil
}

// PredictSeverity returns the most likely overall severity level.
func (m *Model) PredictSeverity(obs []session.Observation) (scoring.Prediction, error) {
	probs := m.Severity.Predict(vectorize(m.index, obs))
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return scoring.Prediction{Label: m.Severity.Labels[best], Probability: probs[best]}, nil
}

// Validate checks that every label and feature of the model exists in base.
func (m *Model) Validate(base *knowledge.Base) error {
	var problems []string
	for _, label := range m.Conditions.Labels {
		if _, _, ok := base.Condition(label); !ok {
			problems = append(problems, fmt.Sprintf("unknown condition %q", label))
		}
	}
	for _, name := range m.Symptoms {
		if !base.Lexicon().Has(name) {
			problems = append(problems, fmt.Sprintf("unknown symptom %q", name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrLabelMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the model to path atomically: the previous file is replaced
// only after the new one is fully written and synced.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}

// Load reads a persisted model. A missing, unreadable or malformed file is
// reported as ErrModelUnavailable.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: corrupt model file: %v", ErrModelUnavailable, err)
	}
	if m.Conditions == nil || m.Severity == nil {
		return nil, fmt.Errorf("%w: model file is incomplete", ErrModelUnavailable)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &m, nil
}

// LoadFor loads a model and validates it against base.
func LoadFor(path string, base *knowledge.Base) (*Model, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(base); err != nil {
		return nil, err
	}
	return m, nil
}
