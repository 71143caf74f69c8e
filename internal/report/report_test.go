package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/privacy"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

var generated = time.Date(2024, 5, 2, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

func sampleInput(t *testing.T) Input {
	t.Helper()
	base, err := knowledge.New(
		[]knowledge.SymptomDefinition{
			{Name: "fever", Category: "general"},
			{Name: "cough", Category: "respiratory"},
			{Name: "sore_throat", Category: "respiratory"},
		},
		[]knowledge.ConditionRecord{
			{
				Name:     "flu",
				Severity: "moderate",
				Symptoms: []knowledge.WeightedSymptom{{Symptom: "fever", Weight: 2}, {Symptom: "cough", Weight: 1}},
				Recommendations: knowledge.Recommendations{
					Immediate:  []string{"Rest"},
					SelfCare:   []string{"Drink fluids"},
					Escalation: []string{"Fever above 39.5C for more than 3 days"},
				},
			},
			{
				Name:     "strep_throat",
				Symptoms: []knowledge.WeightedSymptom{{Symptom: "sore_throat", Weight: 2}, {Symptom: "fever", Weight: 1}},
			},
		},
	)
	require.NoError(t, err)

	st := session.New(0)
	fever, _ := base.Lexicon().Definition("fever")
	st.AddOrUpdate(session.Observation{
		Symptom:  fever,
		Severity: session.SeveritySevere,
		Duration: &session.Duration{Magnitude: 3, Unit: "days", Text: "3 days"},
	})
	st.AddTurn("user", "I've had a fever for 3 days, email me at jo@example.com")

	res, err := scoring.NewDeterministic(base).Score(st)
	require.NoError(t, err)

	return Input{
		SessionID:    "s-1",
		Observations: st.All(),
		Result:       res,
		Summary:      st.SeveritySummary(session.DefaultThresholds),
		Transcript:   st.Transcript(),
		Redact:       privacy.SanitizeForStorage,
		TopK:         scoring.DefaultTopK,
		Disclaimer:   "This is not a diagnosis.",
		GeneratedAt:  generated,
	}
}

func TestBuild(t *testing.T) {
	rec := Build(sampleInput(t))

	assert.Equal(t, FormatVersion, rec.Version)
	assert.Equal(t, time.UTC, rec.GeneratedAt.Location())
	assert.Equal(t, scoring.StrategyDeterministic, rec.Strategy)

	require.Len(t, rec.Symptoms, 1)
	assert.Equal(t, Symptom{
		Name:           "fever",
		Label:          "fever",
		Category:       "general",
		Severity:       "severe",
		Duration:       "3 days",
		FirstMentioned: rec.Symptoms[0].FirstMentioned,
	}, rec.Symptoms[0])

	require.Len(t, rec.Conditions, 2)
	assert.Equal(t, "flu", rec.Conditions[0].Name)
	assert.Equal(t, 0.67, rec.Conditions[0].Probability)
	assert.Equal(t, 0.33, rec.Conditions[1].Probability)
	assert.Equal(t, []string{"fever"}, rec.Conditions[0].Matched)

	require.NotNil(t, rec.Recommendations)
	assert.Equal(t, "flu", rec.Recommendations.Condition)
	assert.Equal(t, []string{"Rest"}, rec.Recommendations.Immediate)

	assert.Equal(t, "severe", rec.Severity.Level)
	assert.Equal(t, 3.0, rec.Severity.Score)
	assert.Empty(t, rec.Severity.Predicted)

	require.Len(t, rec.Transcript, 1)
	assert.NotContains(t, rec.Transcript[0].Text, "jo@example.com")
	assert.Contains(t, rec.Transcript[0].Text, "[EMAIL]")
}

func TestBuildWithPredictedSeverity(t *testing.T) {
	in := sampleInput(t)
	in.Result.Severity = &scoring.SeverityPrediction{Level: session.SeverityModerate, Probability: 0.8123}
	in.TopK = 1

	rec := Build(in)
	assert.Len(t, rec.Conditions, 1)
	assert.Equal(t, "moderate", rec.Severity.Predicted)
	assert.Equal(t, 0.81, rec.Severity.PredictedProbability)
}

func TestBuildEmptySession(t *testing.T) {
	rec := Build(Input{SessionID: "empty", GeneratedAt: generated})
	assert.Empty(t, rec.Symptoms)
	assert.Empty(t, rec.Conditions)
	assert.Nil(t, rec.Recommendations)
	assert.Equal(t, "none", rec.Severity.Level)

	data, err := rec.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"symptoms": []`)
	assert.Contains(t, string(data), `"conditions": []`)
}

func TestJSONRoundTrip(t *testing.T) {
	rec := Build(sampleInput(t))
	rec.ID = "42"

	data, err := rec.JSON()
	require.NoError(t, err)

	for _, field := range []string{`"session_id"`, `"generated_at"`, `"matched_symptoms"`, `"self_care"`, `"probability": 0.67`} {
		assert.Contains(t, string(data), field)
	}

	parsed, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, parsed); diff != "" {
		t.Errorf("Record changed after round trip (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version": 99}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	rec := Build(sampleInput(t))
	rec.Emergency = true
	text := rec.Text()

	for _, want := range []string{
		"Symptom assessment (2024-05-02 07:30 UTC)",
		"Possible emergency",
		"  - fever: severe (3 days)",
		"Overall severity: severe (score 3.00)",
		"  1. Flu  67%  [fever]",
		"    * Drink fluids",
		"This is not a diagnosis.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected text to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	rec := Build(sampleInput(t))
	rec.Emergency = true

	var buf bytes.Buffer
	require.NoError(t, rec.RenderPDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}
