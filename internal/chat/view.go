package chat

import (
	"github.com/themobileprof/symptomcheck/internal/report"
)

// View is the wire form of a Response shared by the HTTP and WebSocket
// front ends.
type View struct {
	SessionID          string             `json:"session_id"`
	Intent             string             `json:"intent"`
	Reply              string             `json:"reply"`
	Added              []report.Symptom   `json:"added"`
	Updated            []report.Symptom   `json:"updated"`
	Conditions         []report.Condition `json:"conditions"`
	FollowUp           *string            `json:"follow_up"`
	FollowUpSymptom    string             `json:"follow_up_symptom,omitempty"`
	Route              string             `json:"route,omitempty"`
	ModelAvailable     bool               `json:"model_available"`
	Degraded           bool               `json:"degraded,omitempty"`
	Emergency          bool               `json:"emergency"`
	RedFlags           []string           `json:"red_flags,omitempty"`
	NoSymptomsDetected bool               `json:"no_symptoms_detected,omitempty"`
}

// View converts a response, keeping the engine's top-K conditions
func (e *Engine) View(resp *Response) View {
	return View{
		SessionID:          resp.SessionID,
		Intent:             string(resp.Intent),
		Reply:              resp.Reply,
		Added:              report.Symptoms(resp.Added),
		Updated:            report.Symptoms(resp.Updated),
		Conditions:         report.Conditions(resp.Assessment.Top(e.topK)),
		FollowUp:           resp.FollowUp,
		FollowUpSymptom:    resp.FollowUpSymptom,
		Route:              resp.Route,
		ModelAvailable:     resp.ModelAvailable,
		Degraded:           resp.Degraded,
		Emergency:          resp.Emergency,
		RedFlags:           resp.RedFlags,
		NoSymptomsDetected: resp.NoSymptomsDetected,
	}
}
