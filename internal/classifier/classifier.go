package classifier

import (
	"regexp"
	"strings"
)

// Intent represents the classified intent of a user message
type Intent string

const (
	IntentSmallTalk Intent = "small_talk"
	IntentGratitude Intent = "gratitude"
	IntentSymptom   Intent = "symptom_report"
	IntentQuestion  Intent = "question"
	IntentReset     Intent = "reset"
	IntentUnclear   Intent = "unclear"
)

// ClassifierResult contains the classification result
type ClassifierResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Complexity describes how much narrative an utterance carries.
type Complexity struct {
	Words      int      `json:"words"`
	Connectors []string `json:"connectors,omitempty"`
}

// Classifier performs rule-based intent classification
type Classifier struct {
	greetingPatterns  []*regexp.Regexp
	goodbyePatterns   []*regexp.Regexp
	thanksPatterns    []*regexp.Regexp
	resetPatterns     []*regexp.Regexp
	questionPatterns  []*regexp.Regexp
	symptomPatterns   []*regexp.Regexp
	connectorPatterns []*regexp.Regexp
	spaceNormalizer   *regexp.Regexp
}

// NewClassifier creates a new intent classifier
func NewClassifier() *Classifier {
	return &Classifier{
		spaceNormalizer: regexp.MustCompile(`\s+`),
		greetingPatterns: compilePatterns([]string{
			`\b(hi|hello|hey|hola|bonjour|salut|good morning|good afternoon|good evening)\b`,
			`\bhow are you\b`,
			`\bwhat's up\b`,
		}),
		goodbyePatterns: compilePatterns([]string{
			`\b(bye|goodbye|see you|farewell|adiós|hasta luego|au revoir)\b`,
			`\btalk to you later\b`,
		}),
		thanksPatterns: compilePatterns([]string{
			`\b(thanks|thank you|thx|gracias|merci)\b`,
			`\bappreciate it\b`,
		}),
		resetPatterns: compilePatterns([]string{
			`^(reset|restart|clear|start over|new session)$`,
			`\b(start over|clear (my|all|the) symptoms|forget everything)\b`,
		}),
		questionPatterns: compilePatterns([]string{
			`\bwhat (should|can|do) i\b`,
			`\bwhat do i have\b`,
			`\bis (it|this|that) serious\b`,
			`\bshould i (see|go|call|visit)\b`,
			`\b(diagnosis|results?|assessment|summary)\b`,
			`\?$`,
		}),
		symptomPatterns: compilePatterns([]string{
			`\b(pain|hurts?|hurting|ache|aches|aching|sore|dolor|duele)\b`,
			`\b(sick|ill|unwell|nauseous|vomit\w*|dizzy|tired|weak)\b`,
			`\b(fever|temperature|cough\w*|sneez\w*|rash|itch\w*)\b`,
			`\bi('m| am| have| feel|'ve been).*\b(experiencing|feeling|having|noticing|noticed|got)\b`,
			`\bmy \w+ (hurts|aches|is sore|is swollen)\b`,
			`\btengo\b`,
			`\bj'ai mal\b`,
		}),
		connectorPatterns: compilePatterns([]string{
			`\band\b`,
			`\balso\b`,
			`\bthen\b`,
			`\bplus\b`,
			`\bas well( as)?\b`,
			`\balong with\b`,
			`\bon top of\b`,
			`\bfor the (past|last)\b`,
		}),
	}
}

// Classify determines the intent of the input message. The lang argument is
// reserved for language-specific pattern sets.
func (c *Classifier) Classify(input, lang string) ClassifierResult {
	normalized := c.normalizeText(input)

	if normalized == "" {
		return ClassifierResult{
			Intent:     IntentUnclear,
			Confidence: 0.1,
		}
	}

	if c.matchesPatterns(normalized, c.resetPatterns) {
		return ClassifierResult{
			Intent:     IntentReset,
			Confidence: 0.9,
		}
	}

	// Symptom reports outrank greetings: "hi, I have a headache" is a report.
	symptomMatches := c.countMatches(normalized, c.symptomPatterns)
	if symptomMatches > 0 {
		confidence := 0.75 + float64(symptomMatches)*0.05
		if confidence > 0.95 {
			confidence = 0.95
		}
		return ClassifierResult{
			Intent:     IntentSymptom,
			Confidence: confidence,
		}
	}

	if c.matchesPatterns(normalized, c.greetingPatterns) || c.matchesPatterns(normalized, c.goodbyePatterns) {
		return ClassifierResult{
			Intent:     IntentSmallTalk,
			Confidence: 0.9,
		}
	}

	if c.matchesPatterns(normalized, c.thanksPatterns) {
		return ClassifierResult{
			Intent:     IntentGratitude,
			Confidence: 0.9,
		}
	}

	if questionMatches := c.countMatches(normalized, c.questionPatterns); questionMatches > 0 {
		confidence := 0.6 + float64(questionMatches)*0.1
		if confidence > 0.9 {
			confidence = 0.9
		}
		return ClassifierResult{
			Intent:     IntentQuestion,
			Confidence: confidence,
		}
	}

	return ClassifierResult{
		Intent:     IntentUnclear,
		Confidence: 0.3,
	}
}

// Complexity counts words and narrative connectors such as "and", "also" or
// "for the past".
func (c *Classifier) Complexity(input string) Complexity {
	normalized := c.normalizeText(input)
	if normalized == "" {
		return Complexity{}
	}
	out := Complexity{Words: len(strings.Fields(normalized))}
	for _, pattern := range c.connectorPatterns {
		if m := pattern.FindString(normalized); m != "" {
			out.Connectors = append(out.Connectors, m)
		}
	}
	return out
}

// normalizeText preprocesses input text for classification
func (c *Classifier) normalizeText(input string) string {
	text := strings.ToLower(input)
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "’", "'")
	text = c.spaceNormalizer.ReplaceAllString(text, " ")

	// Keep a trailing question mark, it marks a question.
	text = strings.TrimRight(text, "!.,;:")

	return text
}

// matchesPatterns checks if any pattern matches
func (c *Classifier) matchesPatterns(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// countMatches counts how many patterns match
func (c *Classifier) countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			count++
		}
	}
	return count
}

// compilePatterns compiles a slice of regex patterns
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re := regexp.MustCompile(p)
		compiled = append(compiled, re)
	}
	return compiled
}
