package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/db"
	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/model"
	"github.com/themobileprof/symptomcheck/internal/report"
)

func newEngine(t *testing.T) *chat.Engine {
	t.Helper()
	base, err := knowledge.Default()
	require.NoError(t, err)
	return chat.NewEngine(base, chat.Options{})
}

func TestREPL(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"I have a fever and a cough",
		"/symptoms",
		"/remove cough",
		"/remove cough",
		"/export json",
		"/bogus",
		"/quit",
		"never read",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), newEngine(t), "en", in, &out))

	got := out.String()
	assert.Contains(t, got, "Describe your symptoms")
	assert.Contains(t, got, "  - fever (")
	assert.Contains(t, got, "Removed cough.")
	assert.Contains(t, got, `error: "cough" is not tracked`)
	assert.Contains(t, got, `"session_id"`)
	assert.Contains(t, got, "error: unknown command /bogus")
}

func TestREPLEmergencyAndEOF(t *testing.T) {
	var out bytes.Buffer
	err := runREPL(context.Background(), newEngine(t), "en", strings.NewReader("I have crushing chest pain\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "!! POSSIBLE EMERGENCY")
}

func TestREPLExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	in := strings.NewReader("I have a headache\n/export pdf " + path + "\n")
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), newEngine(t), "en", in, &out))
	assert.Contains(t, out.String(), "Saved "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestWriteRecordFormats(t *testing.T) {
	rec := report.Record{Version: report.FormatVersion, SessionID: "s1"}

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"json", `"session_id": "s1"`, false},
		{"text", "Symptom assessment", false},
		{"pdf", "%PDF-", false},
		{"html", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeRecord(rec, tt.format, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWriteStats(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stats := db.AssessmentStats{
		Assessments:          4,
		Sessions:             3,
		Emergencies:          1,
		AvgSymptoms:          2.5,
		SeverityDistribution: map[string]int64{"severe": 1, "mild": 3},
		TopConditions:        []db.NameCount{{Name: "flu", Count: 3}},
		TopSymptoms:          []db.NameCount{{Name: "fever", Count: 4}},
		First:                &day,
		Last:                 &day,
	}

	var buf bytes.Buffer
	require.NoError(t, writeStats(stats, "text", &buf))
	got := buf.String()
	assert.Contains(t, got, "2.50")
	assert.Contains(t, got, "2024-06-01 to 2024-06-01")
	assert.Less(t, strings.Index(got, "mild"), strings.Index(got, "severe"))
	assert.Contains(t, got, "flu")
	assert.Contains(t, got, "fever")

	buf.Reset()
	require.NoError(t, writeStats(stats, "json", &buf))
	assert.Contains(t, buf.String(), `"top_symptoms"`)

	assert.Error(t, writeStats(stats, "pdf", &buf))
}

func TestKnowledgeAndDatasetCommands(t *testing.T) {
	t.Setenv("KNOWLEDGE_PATH", "")
	t.Setenv("TUNING_PATH", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"knowledge", "--check"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "OK:")

	path := filepath.Join(t.TempDir(), "data.jsonl")
	rootCmd.SetArgs([]string{"dataset", "--per-condition", "3", "--seed", "9", "-o", path})
	require.NoError(t, rootCmd.Execute())

	examples, err := model.LoadDatasetFile(path)
	require.NoError(t, err)
	base, err := knowledge.Default()
	require.NoError(t, err)
	assert.Len(t, examples, base.Len()*3)
}
