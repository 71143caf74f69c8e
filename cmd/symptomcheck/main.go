package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/app"
	"github.com/themobileprof/symptomcheck/internal/config"
)

var (
	verbose       bool
	envFile       string
	knowledgePath string
	modelPath     string

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "symptomcheck",
	Short: "Symptom analysis and condition inference",
	Long: `symptomcheck extracts symptoms from free text, tracks them across a
conversation and ranks likely conditions against a knowledge base.

It scores with a deterministic weighted match, or with a trained
statistical model when one is available.

This tool is not a diagnosis. Seek medical care for urgent symptoms.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if err := config.LoadDotEnv(); err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = config.NewLogger(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Read environment from this file (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&knowledgePath, "knowledge", "", "Knowledge base file, .yaml or .db (or set KNOWLEDGE_PATH)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "Model file (or set MODEL_PATH)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if knowledgePath != "" {
		cfg.KnowledgePath = knowledgePath
	}
	if modelPath != "" {
		cfg.ModelPath = modelPath
	}
	return cfg, nil
}

// loadApp assembles the engine. withHistory false skips the database.
func loadApp(ctx context.Context, withHistory bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !withHistory {
		cfg.DatabaseURL = ""
	}
	return app.New(ctx, cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
