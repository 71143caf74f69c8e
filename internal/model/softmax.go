package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Softmax is a multinomial logistic regression classifier. Weights holds one
// row per label; the last column of each row is the bias.
type Softmax struct {
	Labels  []string    `json:"labels"`
	Weights [][]float64 `json:"weights"`
}

// FitOptions control a training run.
type FitOptions struct {
	Seed         int64
	LearningRate float64
	L2           float64
	Epochs       int
	MaxDuration  time.Duration // zero means no time budget
}

// FitStats reports how a training run ended.
type FitStats struct {
	Epochs    int
	Loss      float64
	Truncated bool // stopped by the time budget
}

var errNoExamples = errors.New("no training examples")

// fitSoftmax trains a classifier with full-batch gradient descent. It is
// deterministic for a given seed and input order. Cancellation aborts the run
// and returns ctx.Err(); the time budget ends it early with the weights
// reached so far.
func fitSoftmax(ctx context.Context, labels []string, x [][]float64, y []int, opts FitOptions) (*Softmax, FitStats, error) {
	if len(x) == 0 {
		return nil, FitStats{}, errNoExamples
	}
	k, d := len(labels), len(x[0])
	rng := rand.New(rand.NewSource(opts.Seed))

	w := make([][]float64, k)
	for i := range w {
		w[i] = make([]float64, d+1)
		for j := range w[i] {
			w[i][j] = (rng.Float64() - 0.5) * 0.02
		}
	}

	var deadline time.Time
	if opts.MaxDuration > 0 {
		deadline = time.Now().Add(opts.MaxDuration)
	}

	grad := make([][]float64, k)
	for i := range grad {
		grad[i] = make([]float64, d+1)
	}
	probs := make([]float64, k)
	n := float64(len(x))
	stats := FitStats{}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			stats.Truncated = true
			break
		}

		for i := range grad {
			for j := range grad[i] {
				grad[i][j] = 0
			}
		}
		loss := 0.0
		for s, features := range x {
			forward(w, features, probs)
			loss -= math.Log(math.Max(probs[y[s]], 1e-12))
			for c := 0; c < k; c++ {
				delta := probs[c]
				if c == y[s] {
					delta -= 1
				}
				for j, v := range features {
					grad[c][j] += delta * v
				}
				grad[c][d] += delta
			}
		}

		for c := 0; c < k; c++ {
			for j := 0; j < d; j++ {
				w[c][j] -= opts.LearningRate * (grad[c][j]/n + opts.L2*w[c][j])
			}
			w[c][d] -= opts.LearningRate * grad[c][d] / n
		}
		stats.Epochs = epoch + 1
		stats.Loss = loss / n
	}

	return &Softmax{Labels: append([]string(nil), labels...), Weights: w}, stats, nil
}

// Predict returns the probability of every label for features.
func (m *Softmax) Predict(features []float64) []float64 {
	probs := make([]float64, len(m.Labels))
	forward(m.Weights, features, probs)
	return probs
}

// forward writes softmax(W·x + b) into probs.
func forward(w [][]float64, features []float64, probs []float64) {
	maxLogit := math.Inf(-1)
	for c, row := range w {
		z := row[len(row)-1]
		for j, v := range features {
			z += row[j] * v
		}
		probs[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	sum := 0.0
	for c := range probs {
		probs[c] = math.Exp(probs[c] - maxLogit)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
}

// dims reports the feature width the classifier expects, or -1 when the
// weight matrix is malformed.
func (m *Softmax) dims() int {
	if m == nil || len(m.Labels) == 0 || len(m.Weights) != len(m.Labels) {
		return -1
	}
	width := len(m.Weights[0])
	for _, row := range m.Weights {
		if len(row) != width {
			return -1
		}
	}
	return width - 1
}
