package language

import "strings"

// DefaultLanguage is used for unknown or empty codes
const DefaultLanguage = "en"

// Info describes a supported conversation language
type Info struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

var supported = []Info{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
}

// ValidationResult represents the result of language validation
type ValidationResult struct {
	Code         string `json:"code"`
	UsedFallback bool   `json:"used_fallback"`
}

// Supported returns the supported languages in display order
func Supported() []Info {
	out := make([]Info, len(supported))
	copy(out, supported)
	return out
}

// IsSupported checks if a normalized language code is supported
func IsSupported(code string) bool {
	for _, l := range supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Validate maps a client supplied code such as "ES", "fr-CA" or "French"
// to a supported code, falling back to DefaultLanguage.
func Validate(code string) ValidationResult {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	for _, l := range supported {
		if code == l.Code || code == strings.ToLower(l.Name) || code == strings.ToLower(l.NativeName) {
			return ValidationResult{Code: l.Code}
		}
	}
	return ValidationResult{Code: DefaultLanguage, UsedFallback: true}
}
