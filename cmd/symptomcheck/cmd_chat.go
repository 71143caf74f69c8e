package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/report"
)

var chatLang string

// chatCmd runs an interactive session in the terminal
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Describe symptoms interactively",
	Long: `Starts a conversation in the terminal. Type how you feel in plain words.

Commands:
  /symptoms                 list tracked symptoms
  /remove <symptom>         stop tracking a symptom
  /clear                    start over
  /export [json|text|pdf] [file]
  /quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()
		return runREPL(cmd.Context(), a.Engine, chatLang, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatLang, "lang", "en", "Conversation language (en, es, fr)")
}

// runREPL reads utterances line by line until EOF or /quit
func runREPL(ctx context.Context, engine *chat.Engine, lang string, in io.Reader, out io.Writer) error {
	id := engine.StartSession(lang)
	defer engine.EndSession(id)

	fmt.Fprintln(out, "Describe your symptoms. Type /quit to exit.")
	if !engine.ModelAvailable() {
		fmt.Fprintln(out, "(statistical model not loaded, using weighted matching)")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := replCommand(ctx, engine, id, line, out)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		resp, err := engine.ProcessUtterance(ctx, id, line)
		if err != nil {
			return err
		}
		if resp.Emergency {
			fmt.Fprintln(out, "!! POSSIBLE EMERGENCY")
		}
		fmt.Fprintln(out, resp.Reply)
		if resp.Degraded {
			fmt.Fprintln(out, "(statistical scoring unavailable, used weighted matching)")
		}
	}
}

func replCommand(ctx context.Context, engine *chat.Engine, id, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/symptoms":
		obs, err := engine.GetSessionSymptoms(id)
		if err != nil {
			return false, err
		}
		if len(obs) == 0 {
			fmt.Fprintln(out, "No symptoms tracked yet.")
		}
		for _, s := range report.Symptoms(obs) {
			fmt.Fprintf(out, "  - %s (%s)\n", s.Label, s.Severity)
		}

	case "/remove":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /remove <symptom>")
		}
		name := strings.Join(fields[1:], " ")
		if !engine.RemoveSymptom(id, name) {
			return false, fmt.Errorf("%q is not tracked", name)
		}
		fmt.Fprintf(out, "Removed %s.\n", name)

	case "/clear":
		if err := engine.ClearSession(id); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "Cleared. Let's start over.")

	case "/export":
		format := "text"
		if len(fields) > 1 {
			format = fields[1]
		}
		rec, err := engine.ExportAssessment(ctx, id)
		if err != nil {
			return false, err
		}
		if len(fields) > 2 {
			return false, writeRecordFile(rec, format, fields[2], out)
		}
		return false, writeRecord(rec, format, out)

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

// writeRecord renders rec in format to w
func writeRecord(rec report.Record, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := rec.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text":
		return rec.WriteText(w)
	case "pdf":
		return rec.RenderPDF(w)
	default:
		return fmt.Errorf("unknown format %q: want json, text or pdf", format)
	}
}

func writeRecordFile(rec report.Record, format, path string, out io.Writer) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRecord(rec, format, fh); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}
