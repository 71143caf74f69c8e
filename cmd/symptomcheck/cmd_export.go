package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/themobileprof/symptomcheck/internal/db"
)

var (
	exportFormat  string
	exportOut     string
	exportLang    string
	historyLimit  int
	historySearch string
	historyStats  bool
	serveTrain    bool
)

// exportCmd assesses utterances in one shot
var exportCmd = &cobra.Command{
	Use:   "export [utterance...]",
	Short: "Assess the given utterances and print the report",
	Long: `Feeds each argument to a fresh session as one utterance, then prints the
assessment report.

Example:
  symptomcheck export "I have had a fever for 3 days" "now a mild cough" --format text`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.Engine.StartSession(exportLang)
		for _, text := range args {
			if _, err := a.Engine.ProcessUtterance(cmd.Context(), id, text); err != nil {
				return err
			}
		}
		rec, err := a.Engine.ExportAssessment(cmd.Context(), id)
		if err != nil {
			return err
		}
		if exportOut != "" {
			return writeRecordFile(rec, exportFormat, exportOut, cmd.ErrOrStderr())
		}
		return writeRecord(rec, exportFormat, cmd.OutOrStdout())
	},
}

// historyCmd lists saved assessments
var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List saved assessments, or print one by ID",
	Long: `Reads the assessment history from the database in DATABASE_URL.
With --stats, prints totals, the severity distribution and the most common
conditions and symptoms instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.DB == nil {
			return fmt.Errorf("history needs DATABASE_URL")
		}

		if historyStats {
			stats, err := a.DB.AssessmentStats(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			return writeStats(stats, exportFormat, cmd.OutOrStdout())
		}

		if len(args) == 1 {
			rec, err := a.DB.GetAssessment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeRecord(rec, exportFormat, cmd.OutOrStdout())
		}

		items, err := a.DB.ListAssessments(cmd.Context(), historySearch, historyLimit, 0)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSESSION\tTOP CONDITION\tSEVERITY\tEMERGENCY")
		for _, it := range items {
			top := "-"
			if it.TopCondition != nil && it.TopProbability != nil {
				top = fmt.Sprintf("%s (%.0f%%)", *it.TopCondition, *it.TopProbability*100)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%v\n",
				it.ID, it.CreatedAt.Format("2006-01-02 15:04"), it.SessionID, top, it.Severity, it.Emergency)
		}
		return tw.Flush()
	},
}

// writeStats prints history statistics as JSON or a text summary
func writeStats(s db.AssessmentStats, format string, w io.Writer) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "text":
	default:
		return fmt.Errorf("unsupported format %q (want json or text)", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Assessments:\t%d\n", s.Assessments)
	fmt.Fprintf(tw, "Sessions:\t%d\n", s.Sessions)
	fmt.Fprintf(tw, "Emergencies:\t%d\n", s.Emergencies)
	fmt.Fprintf(tw, "Symptoms per assessment:\t%.2f\n", s.AvgSymptoms)
	if s.First != nil && s.Last != nil {
		fmt.Fprintf(tw, "Period:\t%s to %s\n", s.First.Format("2006-01-02"), s.Last.Format("2006-01-02"))
	}

	levels := make([]string, 0, len(s.SeverityDistribution))
	for level := range s.SeverityDistribution {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	fmt.Fprintln(tw, "\nSEVERITY\tCOUNT")
	for _, level := range levels {
		fmt.Fprintf(tw, "%s\t%d\n", level, s.SeverityDistribution[level])
	}

	fmt.Fprintln(tw, "\nTOP CONDITION\tCOUNT")
	for _, nc := range s.TopConditions {
		fmt.Fprintf(tw, "%s\t%d\n", nc.Name, nc.Count)
	}
	fmt.Fprintln(tw, "\nTOP SYMPTOM\tCOUNT")
	for _, nc := range s.TopSymptoms {
		fmt.Fprintf(tw, "%s\t%d\n", nc.Name, nc.Count)
	}
	return tw.Flush()
}

// serveCmd runs the HTTP and WebSocket server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and WebSocket chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		gin.SetMode(a.Config.GinMode)
		if (serveTrain || a.Config.TrainOnStart) && !a.Engine.ModelAvailable() {
			if err := a.TrainInBackground(cmd.Context()); err != nil {
				return err
			}
		}
		return a.Serve(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "text", "Report format: json, text or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the report to a file")
	exportCmd.Flags().StringVar(&exportLang, "lang", "en", "Conversation language (en, es, fr)")

	historyCmd.Flags().StringVarP(&exportFormat, "format", "f", "text", "Report format when printing one assessment")
	historyCmd.Flags().StringVar(&historySearch, "session", "", "Only this session")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum rows, or ranked entries with --stats")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "Print aggregate statistics")

	serveCmd.Flags().BoolVar(&serveTrain, "train", false, "Train a model in the background when none is loaded")
}
