package model

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// Options configure training. Zero values fall back to DefaultOptions.
type Options struct {
	Seed         int64         `yaml:"seed"`
	LearningRate float64       `yaml:"learning_rate"`
	L2           float64       `yaml:"l2"`
	Epochs       int           `yaml:"epochs"`
	MaxDuration  time.Duration `yaml:"max_duration"`
}

// DefaultOptions are the stock training settings.
var DefaultOptions = Options{
	Seed:         42,
	LearningRate: 0.5,
	L2:           0.001,
	Epochs:       400,
	MaxDuration:  2 * time.Minute,
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = DefaultOptions.Seed
	}
	if o.LearningRate <= 0 {
		o.LearningRate = DefaultOptions.LearningRate
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	if o.Epochs <= 0 {
		o.Epochs = DefaultOptions.Epochs
	}
	if o.MaxDuration < 0 {
		o.MaxDuration = 0
	}
	return o
}

// Outcome is the result of a background training run.
type Outcome struct {
	Model *Model
	Err   error
}

// Trainer fits models for one knowledge base. Concurrent TrainAndSave calls
// for the same path share a single run.
type Trainer struct {
	base    *knowledge.Base
	opts    Options
	logger  *zap.Logger
	group   singleflight.Group
	running atomic.Bool
	now     func() time.Time
}

// NewTrainer creates a trainer. A nil logger disables logging.
func NewTrainer(base *knowledge.Base, opts Options, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{base: base, opts: opts.withDefaults(), logger: logger, now: time.Now}
}

// Train fits the condition and severity classifiers on examples. The result
// depends only on the examples, the knowledge base and the options.
func (t *Trainer) Train(ctx context.Context, examples []Example) (*Model, error) {
	if len(examples) == 0 {
		return nil, errNoExamples
	}
	if err := ValidateDataset(t.base, examples); err != nil {
		return nil, err
	}

	lex := t.base.Lexicon()
	defs := lex.Definitions()
	symptoms := make([]string, len(defs))
	for i, d := range defs {
		symptoms[i] = d.Name
	}
	index := indexOf(symptoms)

	conds := t.base.Conditions()
	condLabels := make([]string, len(conds))
	for i, c := range conds {
		condLabels[i] = c.Name
	}
	sevLabels := []string{
		session.SeverityMild.String(),
		session.SeverityModerate.String(),
		session.SeveritySevere.String(),
	}

	x := make([][]float64, len(examples))
	yc := make([]int, len(examples))
	ys := make([]int, len(examples))
	for i, ex := range examples {
		x[i] = vectorize(index, ex.observations(lex))
		_, idx, _ := t.base.Condition(ex.Condition)
		yc[i] = idx
		ys[i] = int(ex.Severity) - 1
	}

	fit := FitOptions{
		Seed:         t.opts.Seed,
		LearningRate: t.opts.LearningRate,
		L2:           t.opts.L2,
		Epochs:       t.opts.Epochs,
		MaxDuration:  t.opts.MaxDuration,
	}
	started := t.now()

	condModel, condStats, err := fitSoftmax(ctx, condLabels, x, yc, fit)
	if err != nil {
		return nil, fmt.Errorf("condition classifier: %w", err)
	}
	fit.Seed++
	sevModel, sevStats, err := fitSoftmax(ctx, sevLabels, x, ys, fit)
	if err != nil {
		return nil, fmt.Errorf("severity classifier: %w", err)
	}

	t.logger.Info("model trained",
		zap.Int("examples", len(examples)),
		zap.Int("condition_epochs", condStats.Epochs),
		zap.Float64("condition_loss", condStats.Loss),
		zap.Int("severity_epochs", sevStats.Epochs),
		zap.Float64("severity_loss", sevStats.Loss),
		zap.Bool("truncated", condStats.Truncated || sevStats.Truncated),
		zap.Duration("elapsed", t.now().Sub(started)),
	)

	m := &Model{
		Version:    FormatVersion,
		Seed:       t.opts.Seed,
		TrainedAt:  t.now().UTC(),
		Examples:   len(examples),
		Symptoms:   symptoms,
		Conditions: condModel,
		Severity:   sevModel,
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

// TrainAndSave trains and atomically persists a model to path. A failed or
// cancelled run leaves any existing file at path untouched.
func (t *Trainer) TrainAndSave(ctx context.Context, examples []Example, path string) (*Model, error) {
	v, err, shared := t.group.Do(path, func() (interface{}, error) {
		m, err := t.Train(ctx, examples)
		if err != nil {
			return nil, err
		}
		if err := m.Save(path); err != nil {
			return nil, err
		}
		return m, nil
	})
	if shared {
		t.logger.Debug("joined in-flight training run", zap.String("path", path))
	}
	if err != nil {
		t.logger.Warn("training failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return v.(*Model), nil
}

// TrainAsync runs TrainAndSave on a separate goroutine and delivers the
// outcome on the returned channel. Only one background run may be active.
func (t *Trainer) TrainAsync(ctx context.Context, examples []Example, path string) (<-chan Outcome, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, ErrTrainingInProgress
	}
	out := make(chan Outcome, 1)
	go func() {
		m, err := t.TrainAndSave(ctx, examples, path)
		t.running.Store(false)
		out <- Outcome{Model: m, Err: err}
		close(out)
	}()
	return out, nil
}
