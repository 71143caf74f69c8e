package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

var testOptions = Options{Seed: 7, LearningRate: 0.5, L2: 0.001, Epochs: 300}

func defaultBase(t *testing.T) *knowledge.Base {
	t.Helper()
	base, err := knowledge.Default()
	require.NoError(t, err)
	return base
}

func observe(t *testing.T, base *knowledge.Base, sev session.Severity, names ...string) []session.Observation {
	t.Helper()
	out := make([]session.Observation, 0, len(names))
	for _, n := range names {
		def, ok := base.Lexicon().Definition(n)
		require.True(t, ok, n)
		out = append(out, session.Observation{Symptom: def, Severity: sev})
	}
	return out
}

func trainDefault(t *testing.T) (*knowledge.Base, *Model) {
	t.Helper()
	base := defaultBase(t)
	m, err := NewTrainer(base, testOptions, nil).Train(context.Background(), Synthesize(base, 7, 40))
	require.NoError(t, err)
	return base, m
}

func TestSynthesize(t *testing.T) {
	base := defaultBase(t)

	a := Synthesize(base, 11, 10)
	b := Synthesize(base, 11, 10)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Expected identical datasets for the same seed (-a +b):\n%s", diff)
	}
	assert.Len(t, a, base.Len()*10)
	assert.NoError(t, ValidateDataset(base, a))

	c := Synthesize(base, 12, 10)
	assert.NotEqual(t, a, c)
}

func TestTrainIsDeterministic(t *testing.T) {
	base := defaultBase(t)
	data := Synthesize(base, 3, 10)
	opts := Options{Seed: 5, Epochs: 50}

	m1, err := NewTrainer(base, opts, nil).Train(context.Background(), data)
	require.NoError(t, err)
	m2, err := NewTrainer(base, opts, nil).Train(context.Background(), data)
	require.NoError(t, err)

	if !cmp.Equal(m1.Conditions.Weights, m2.Conditions.Weights) {
		t.Error("Expected identical condition weights for identical seed and data")
	}
	if !cmp.Equal(m1.Severity.Weights, m2.Severity.Weights) {
		t.Error("Expected identical severity weights for identical seed and data")
	}
}

func TestModelPredictsProfiles(t *testing.T) {
	base, m := trainDefault(t)

	tests := []struct {
		symptoms []string
		want     string
	}{
		{[]string{"fever", "cough", "fatigue", "body_ache"}, "flu"},
		{[]string{"headache", "sensitivity_to_light", "nausea"}, "migraine"},
		{[]string{"chest_pain", "shortness_of_breath"}, "angina"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.symptoms, "+"), func(t *testing.T) {
			preds, err := m.PredictConditions(observe(t, base, session.SeverityModerate, tt.symptoms...))
			require.NoError(t, err)
			require.Len(t, preds, base.Len())
			assert.Equal(t, tt.want, preds[0].Label)

			sum := 0.0
			for i, p := range preds {
				sum += p.Probability
				if i > 0 && p.Probability > preds[i-1].Probability {
					t.Errorf("Predictions not sorted at %d", i)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}

	sev, err := m.PredictSeverity(observe(t, base, session.SeveritySevere, "fever", "cough"))
	require.NoError(t, err)
	_, err = session.ParseSeverity(sev.Label)
	assert.NoError(t, err)
	assert.NotEqual(t, "none", sev.Label)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	base, m := trainDefault(t)
	path := filepath.Join(t.TempDir(), "models", "model.json")

	require.NoError(t, m.Save(path))
	loaded, err := LoadFor(path, base)
	require.NoError(t, err)

	obs := observe(t, base, session.SeverityMild, "sneezing", "runny_nose")
	want, _ := m.PredictConditions(obs)
	got, _ := loaded.PredictConditions(obs)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Predictions differ after reload (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadUnavailable(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"version": 1, "symptoms": [`), 0o644))
	_, err = Load(corrupt)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	malformed := filepath.Join(dir, "malformed.json")
	doc := `{"version":1,"symptoms":["fever"],"conditions":{"labels":["flu"],"weights":[[1]]},"severity":{"labels":["mild"],"weights":[[1,2]]}}`
	require.NoError(t, os.WriteFile(malformed, []byte(doc), 0o644))
	_, err = Load(malformed)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestValidateLabelMismatch(t *testing.T) {
	_, m := trainDefault(t)

	small, err := knowledge.New(
		[]knowledge.SymptomDefinition{{Name: "fever"}},
		[]knowledge.ConditionRecord{{Name: "flu", Symptoms: []knowledge.WeightedSymptom{{Symptom: "fever", Weight: 1}}}},
	)
	require.NoError(t, err)

	err = m.Validate(small)
	assert.True(t, errors.Is(err, ErrLabelMismatch))
	assert.Contains(t, err.Error(), "covid19")
}

func TestValidateDataset(t *testing.T) {
	base := defaultBase(t)
	bad := []Example{
		{Condition: "flu", Severity: session.SeverityMild, Symptoms: []Observed{{Name: "fever", Severity: session.SeverityMild}}},
		{Condition: "dragon_pox", Severity: session.SeverityMild, Symptoms: []Observed{{Name: "scales", Severity: session.SeverityMild}}},
	}
	err := ValidateDataset(base, bad)
	require.True(t, errors.Is(err, ErrLabelMismatch))
	assert.Contains(t, err.Error(), "dragon_pox")
	assert.Contains(t, err.Error(), "scales")

	_, err = NewTrainer(base, testOptions, nil).Train(context.Background(), bad)
	assert.True(t, errors.Is(err, ErrLabelMismatch))
}

func TestLoadDataset(t *testing.T) {
	input := `# synthetic
{"symptoms":[{"name":"fever","severity":"severe"},{"name":"cough","severity":"mild"}],"condition":"flu","severity":"moderate"}

{"symptoms":[{"name":"rash","severity":"moderate"}],"condition":"eczema","severity":"mild"}
`
	examples, err := LoadDataset(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, session.SeveritySevere, examples[0].Symptoms[0].Severity)
	assert.Equal(t, session.SeverityModerate, examples[0].Severity)
	assert.Equal(t, "eczema", examples[1].Condition)

	_, err = LoadDataset(strings.NewReader(`{"symptoms": "nope"}`))
	assert.Error(t, err)
}

func TestCancelledRetrainKeepsPreviousModel(t *testing.T) {
	base, m := trainDefault(t)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewTrainer(base, testOptions, nil).TrainAndSave(ctx, Synthesize(base, 99, 5), path)
	assert.True(t, errors.Is(err, context.Canceled))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFitRespectsTimeBudget(t *testing.T) {
	x := [][]float64{{1, 0}, {0, 1}}
	y := []int{0, 1}
	start := time.Now()
	_, stats, err := fitSoftmax(context.Background(), []string{"a", "b"}, x, y, FitOptions{
		Seed: 1, LearningRate: 0.1, Epochs: 1 << 30, MaxDuration: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, stats.Truncated)
	assert.Less(t, stats.Epochs, 1<<30)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestTrainAsync(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := defaultBase(t)
	path := filepath.Join(t.TempDir(), "model.json")
	trainer := NewTrainer(base, Options{Seed: 1, Epochs: 20}, nil)

	done, err := trainer.TrainAsync(context.Background(), Synthesize(base, 1, 5), path)
	require.NoError(t, err)
	outcome := <-done
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Model)

	_, err = LoadFor(path, base)
	assert.NoError(t, err)
}

func TestTrainAsyncSingleRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := defaultBase(t)
	trainer := NewTrainer(base, Options{Seed: 1, Epochs: 1 << 30}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := trainer.TrainAsync(ctx, Synthesize(base, 1, 5), filepath.Join(t.TempDir(), "model.json"))
	require.NoError(t, err)

	_, err = trainer.TrainAsync(ctx, nil, "")
	assert.True(t, errors.Is(err, ErrTrainingInProgress))

	cancel()
	outcome := <-done
	assert.True(t, errors.Is(outcome.Err, context.Canceled))
}
