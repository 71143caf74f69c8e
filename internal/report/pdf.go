package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF writes the record as a single-document A4 PDF. Core fonts are
// used so no font files are needed at runtime.
func (r Record) RenderPDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Symptom assessment", true)
	pdf.SetCreator("symptomcheck", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Symptom assessment"))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Generated %s  |  Session %s", r.GeneratedAt.Format("2006-01-02 15:04 UTC"), r.SessionID)))
	pdf.Ln(10)

	if r.Emergency {
		pdf.SetFillColor(200, 30, 30)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 9, tr("Possible emergency: seek immediate medical care"), "", 1, "C", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, tr(text))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(text string) {
		pdf.MultiCell(0, 6, tr(text), "", "L", false)
	}

	heading("Symptoms")
	if len(r.Symptoms) == 0 {
		line("None recorded.")
	}
	for _, s := range r.Symptoms {
		text := fmt.Sprintf("- %s: %s", s.Label, s.Severity)
		var details []string
		for _, d := range []string{s.Duration, s.Location, s.Frequency} {
			if d != "" {
				details = append(details, d)
			}
		}
		if len(details) > 0 {
			text += " (" + strings.Join(details, ", ") + ")"
		}
		line(text)
	}
	pdf.Ln(2)
	line(fmt.Sprintf("Overall severity: %s (score %.2f)", r.Severity.Level, r.Severity.Score))
	pdf.Ln(4)

	heading("Possible conditions")
	if len(r.Conditions) == 0 {
		line("No matching conditions.")
	} else {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(90, 7, tr("Condition"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, tr("Likelihood"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 7, tr("Matched"), "1", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, c := range r.Conditions {
			pdf.CellFormat(90, 7, tr(c.DisplayName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%.0f%%", c.Probability*100), "1", 0, "C", false, 0, "")
			pdf.CellFormat(0, 7, tr(strings.Join(c.Matched, ", ")), "1", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	if rec := r.Recommendations; rec != nil {
		heading("Recommendations")
		for _, group := range []struct {
			title string
			items []string
		}{
			{"Now", rec.Immediate},
			{"Self-care", rec.SelfCare},
			{"Seek care if", rec.Escalation},
		} {
			if len(group.items) == 0 {
				continue
			}
			pdf.SetFont("Helvetica", "B", 11)
			line(group.title)
			pdf.SetFont("Helvetica", "", 11)
			for _, item := range group.items {
				line("- " + item)
			}
		}
	}

	if r.Disclaimer != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		line(r.Disclaimer)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
