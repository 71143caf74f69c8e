package report

import (
	"fmt"
	"io"
	"strings"
)

// Text renders the record for a terminal or plain-text email.
func (r Record) Text() string {
	var b strings.Builder
	r.WriteText(&b)
	return b.String()
}

// WriteText writes the human readable form of the record to w.
func (r Record) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Symptom assessment (%s)\n", r.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	if r.Emergency {
		b.WriteString("\n!! Possible emergency: seek immediate medical care.\n")
	}

	b.WriteString("\nSymptoms:\n")
	if len(r.Symptoms) == 0 {
		b.WriteString("  (none recorded)\n")
	}
	for _, s := range r.Symptoms {
		fmt.Fprintf(&b, "  - %s: %s", s.Label, s.Severity)
		var details []string
		if s.Duration != "" {
			details = append(details, s.Duration)
		}
		if s.Location != "" {
			details = append(details, s.Location)
		}
		if s.Frequency != "" {
			details = append(details, s.Frequency)
		}
		if len(details) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nOverall severity: %s (score %.2f)", r.Severity.Level, r.Severity.Score)
	if r.Severity.Predicted != "" {
		fmt.Fprintf(&b, ", model estimate %s", r.Severity.Predicted)
	}
	b.WriteString("\n")

	b.WriteString("\nPossible conditions:\n")
	if len(r.Conditions) == 0 {
		b.WriteString("  (no matching conditions)\n")
	}
	for i, c := range r.Conditions {
		fmt.Fprintf(&b, "  %d. %s  %.0f%%", i+1, c.DisplayName, c.Probability*100)
		if len(c.Matched) > 0 {
			fmt.Fprintf(&b, "  [%s]", strings.Join(c.Matched, ", "))
		}
		b.WriteString("\n")
	}

	if rec := r.Recommendations; rec != nil {
		b.WriteString("\nRecommendations:\n")
		writeList(&b, "Now", rec.Immediate)
		writeList(&b, "Self-care", rec.SelfCare)
		writeList(&b, "Seek care if", rec.Escalation)
	}

	if r.Disclaimer != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Disclaimer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "    * %s\n", item)
	}
}
