package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themobileprof/symptomcheck/internal/config"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tuning := config.DefaultTuning()
	tuning.Training = model.Options{Seed: 1, Epochs: 30}
	return &config.Config{
		Port:           "0",
		ModelPath:      filepath.Join(t.TempDir(), "model.json"),
		AllowedOrigins: []string{"*"},
		SessionIdle:    time.Minute,
		Tuning:         tuning,
	}
}

func TestNewWithoutModel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.False(t, a.Engine.ModelAvailable())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.Handler(ctx).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTrainInBackgroundEnablesModel(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.NoError(t, a.TrainInBackground(context.Background()))
	require.Eventually(t, a.Engine.ModelAvailable, 30*time.Second, 20*time.Millisecond)

	_, err = os.Stat(cfg.ModelPath)
	require.NoError(t, err)

	// a restart picks up the persisted model
	b, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.True(t, b.Engine.ModelAvailable())
}

func TestNewRejectsMismatchedModel(t *testing.T) {
	cfg := testConfig(t)
	full, err := knowledge.Default()
	require.NoError(t, err)
	m, err := model.NewTrainer(full, cfg.Tuning.Training, nil).
		Train(context.Background(), model.Synthesize(full, 1, 5))
	require.NoError(t, err)
	require.NoError(t, m.Save(cfg.ModelPath))

	small, err := knowledge.New(knowledge.DefaultSymptoms(), knowledge.DefaultConditions()[:2])
	require.NoError(t, err)
	kbPath := filepath.Join(t.TempDir(), "kb.yaml")
	fh, err := os.Create(kbPath)
	require.NoError(t, err)
	require.NoError(t, knowledge.WriteYAML(fh, small))
	require.NoError(t, fh.Close())
	cfg.KnowledgePath = kbPath

	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestDatasetFromFile(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	examples := model.Synthesize(a.Base, 3, 2)
	path := filepath.Join(t.TempDir(), "data.jsonl")
	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, model.WriteDataset(fh, examples))
	require.NoError(t, fh.Close())

	cfg.DatasetPath = path
	got, err := a.Dataset()
	require.NoError(t, err)
	assert.Len(t, got, len(examples))

	cfg.DatasetPath = filepath.Join(t.TempDir(), "missing.jsonl")
	_, err = a.Dataset()
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
