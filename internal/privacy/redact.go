package privacy

import (
	"regexp"
	"unicode/utf8"
)

// MaxLogLength caps utterances written to logs.
const MaxLogLength = 200

var (
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Matches: 555-123-4567, (555) 123-4567, 555.123.4567, +1-555-123-4567, 555-1234
	phoneRegex = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}|\b\d{3}[-.\s]\d{4}\b`)

	ssnRegex = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	creditCardRegex = regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`)

	// Medical record / patient / insurance identifiers
	medicalIDRegex = regexp.MustCompile(`(?i)\b(MRN|medical record|patient id|member id|policy (no|number))[-:#\s]*[A-Z0-9]{6,}\b`)

	// Full dates such as 04/12/1987 or 1987-04-12; durations like "3 days" are untouched
	dateRegex = regexp.MustCompile(`\b(\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)

	// Self-introductions: "my name is Jane Doe", "I'm called Jane"
	nameRegex = regexp.MustCompile(`\b((?i:my name is|i am called|i'm called|call me))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
)

// RedactSensitiveData replaces personal identifiers with placeholders. Symptom
// wording, numbers and durations are left intact.
func RedactSensitiveData(text string) string {
	text = emailRegex.ReplaceAllString(text, "[EMAIL]")
	text = medicalIDRegex.ReplaceAllString(text, "[MEDICAL_ID]")
	text = ssnRegex.ReplaceAllString(text, "[SSN]")
	text = creditCardRegex.ReplaceAllString(text, "[CARD]")
	text = phoneRegex.ReplaceAllString(text, "[PHONE]")
	text = dateRegex.ReplaceAllString(text, "[DATE]")
	text = nameRegex.ReplaceAllString(text, "${1} [NAME]")
	return text
}

// SanitizeForLogging prepares text for safe logging
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)
	if len(redacted) <= MaxLogLength {
		return redacted
	}
	cut := MaxLogLength - 3
	for cut > 0 && !utf8.RuneStart(redacted[cut]) {
		cut--
	}
	return redacted[:cut] + "..."
}

// SanitizeForStorage redacts text before it is persisted to the assessment
// history.
func SanitizeForStorage(text string) string {
	return RedactSensitiveData(text)
}

// ContainsPII checks if text contains potential PII
func ContainsPII(text string) bool {
	return emailRegex.MatchString(text) ||
		phoneRegex.MatchString(text) ||
		ssnRegex.MatchString(text) ||
		creditCardRegex.MatchString(text) ||
		medicalIDRegex.MatchString(text) ||
		dateRegex.MatchString(text) ||
		nameRegex.MatchString(text)
}
