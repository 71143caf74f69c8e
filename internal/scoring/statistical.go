package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// DefaultConfidenceFloor is the minimum probability a statistical
// prediction needs to be kept.
const DefaultConfidenceFloor = 0.05

// ErrNoPredictor is returned when the statistical strategy has no model.
var ErrNoPredictor = errors.New("no trained model loaded")

// Prediction is one label with its probability.
type Prediction struct {
	Label       string
	Probability float64
}

// Predictor is a trained classifier over session observations.
type Predictor interface {
	PredictConditions(obs []session.Observation) ([]Prediction, error)
	PredictSeverity(obs []session.Observation) (Prediction, error)
}

// Statistical scores a session with a trained classifier.
type Statistical struct {
	base      *knowledge.Base
	predictor Predictor
	floor     float64
	now       func() time.Time
}

// NewStatistical creates the classifier-backed strategy. Predictions below
// floor are dropped; a negative floor uses DefaultConfidenceFloor.
func NewStatistical(base *knowledge.Base, predictor Predictor, floor float64) *Statistical {
	if floor < 0 {
		floor = DefaultConfidenceFloor
	}
	return &Statistical{base: base, predictor: predictor, floor: floor, now: time.Now}
}

func (s *Statistical) Name() string {
	return StrategyStatistical
}

func (s *Statistical) Score(st *session.State) (Result, error) {
	result := Result{Strategy: StrategyStatistical, GeneratedAt: s.now().UTC()}
	if s.predictor == nil {
		return result, ErrNoPredictor
	}
	if st == nil || st.Len() == 0 {
		return result, nil
	}

	obs := st.All()
	preds, err := s.predictor.PredictConditions(obs)
	if err != nil {
		return result, fmt.Errorf("condition prediction failed: %w", err)
	}

	matches := make([]Match, 0, len(preds))
	for _, p := range preds {
		if p.Probability < s.floor {
			continue
		}
		c, idx, ok := s.base.Condition(p.Label)
		if !ok {
			return result, fmt.Errorf("model predicted unknown condition %q", p.Label)
		}
		names, _ := matchedSymptoms(c, st)
		matches = append(matches, Match{
			Condition:   c,
			Probability: clip(p.Probability),
			Matched:     names,
			order:       idx,
		})
	}
	rank(matches)
	result.Matches = matches

	sev, err := s.predictor.PredictSeverity(obs)
	if err != nil {
		return result, fmt.Errorf("severity prediction failed: %w", err)
	}
	level, err := session.ParseSeverity(sev.Label)
	if err != nil {
		return result, fmt.Errorf("model predicted %w", err)
	}
	result.Severity = &SeverityPrediction{Level: level, Probability: sev.Probability}
	return result, nil
}
