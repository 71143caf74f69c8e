package fallback

import (
	"strings"
	"testing"

	"github.com/themobileprof/symptomcheck/internal/classifier"
)

func TestGetIntentResponse(t *testing.T) {
	tests := []struct {
		name           string
		intent         classifier.Intent
		language       string
		expectedAction string
		containsText   string
	}{
		{
			name:           "English greeting",
			intent:         classifier.IntentSmallTalk,
			language:       "en",
			expectedAction: "continue",
			containsText:   "symptoms",
		},
		{
			name:           "Spanish greeting",
			intent:         classifier.IntentSmallTalk,
			language:       "es",
			expectedAction: "continue",
			containsText:   "síntomas",
		},
		{
			name:           "French greeting",
			intent:         classifier.IntentSmallTalk,
			language:       "fr",
			expectedAction: "continue",
			containsText:   "symptômes",
		},
		{
			name:           "English unclear",
			intent:         classifier.IntentUnclear,
			language:       "en",
			expectedAction: "clarify",
			containsText:   "didn't recognize",
		},
		{
			name:           "Spanish reset",
			intent:         classifier.IntentReset,
			language:       "es",
			expectedAction: "continue",
			containsText:   "borré",
		},
		{
			name:           "French gratitude",
			intent:         classifier.IntentGratitude,
			language:       "fr",
			expectedAction: "continue",
			containsText:   "Je vous en prie",
		},
		{
			name:           "unknown intent falls back to unclear",
			intent:         classifier.IntentQuestion,
			language:       "en",
			expectedAction: "clarify",
			containsText:   "didn't recognize",
		},
		{
			name:           "unsupported language falls back to English",
			intent:         classifier.IntentSmallTalk,
			language:       "de",
			expectedAction: "continue",
			containsText:   "Hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := GetIntentResponse(tt.intent, tt.language)
			if response.Action != tt.expectedAction {
				t.Errorf("Expected action %q, got %q", tt.expectedAction, response.Action)
			}
			if !strings.Contains(response.Content, tt.containsText) {
				t.Errorf("Expected content to contain %q, got %q", tt.containsText, response.Content)
			}
		})
	}
}

func TestAllLanguagesCovered(t *testing.T) {
	for _, lang := range SupportedLanguages() {
		t.Run(lang, func(t *testing.T) {
			if GetClarifyPrompt(lang).Content == clarifyPrompts["en"].Content && lang != "en" {
				t.Errorf("Expected translated clarify prompt for %s", lang)
			}
			if GetDegradedResponse(lang).Content == "" {
				t.Errorf("Expected degraded response for %s", lang)
			}
			if !IsEmergencyAction(GetEmergencyResponse(lang)) {
				t.Errorf("Expected emergency action for %s", lang)
			}
			if GetAssessmentIntro(lang) == "" || GetNoMatchResponse(lang).Content == "" {
				t.Errorf("Expected assessment texts for %s", lang)
			}
			if GetDisclaimer(lang) == "" {
				t.Errorf("Expected disclaimer for %s", lang)
			}
			if _, ok := intentReplies[lang]; !ok {
				t.Errorf("Expected intent replies for %s", lang)
			}
		})
	}
}

func TestGetFollowUpPrompt(t *testing.T) {
	tests := []struct {
		language string
		expected string
	}{
		{"en", "Have you also noticed any sore throat?"},
		{"es", "¿También has notado sore throat?"},
		{"xx", "Have you also noticed any sore throat?"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			response := GetFollowUpPrompt(tt.language, "sore throat")
			if response.Content != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, response.Content)
			}
			if response.Action != "follow_up" {
				t.Errorf("Expected follow_up action, got %q", response.Action)
			}
		})
	}
}

func TestEmergencyResponseFallsBackToEnglish(t *testing.T) {
	response := GetEmergencyResponse("de")
	if !strings.Contains(response.Content, "emergency services") {
		t.Errorf("Expected English emergency advice, got %q", response.Content)
	}
}
