package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/model"
)

var (
	trainEpochs    int
	trainSeed      int64
	trainBudget    time.Duration
	datasetOut     string
	datasetSize    int
	knowledgeOut   string
	knowledgeCheck bool
)

// trainCmd fits and saves the statistical model
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the statistical model and save it",
	Long: `Fits the condition and severity classifiers and writes the model file
atomically. The training data is the JSON-lines file in DATASET_PATH when
set, otherwise a dataset synthesized from the knowledge base.

A cancelled or failed run leaves any existing model untouched.`,
	RunE: runTrain,
}

// datasetCmd writes a synthesized dataset
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Synthesize a labeled dataset from the knowledge base",
	RunE:  runDataset,
}

// knowledgeCmd dumps the loaded knowledge base
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Print the loaded knowledge base as YAML",
	Long: `Loads the configured knowledge base (built-in, YAML or SQLite) and prints
it in the YAML layout, which can be edited and loaded back with --knowledge.`,
	RunE: runKnowledge,
}

func init() {
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "Training epochs (default from tuning)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "Random seed (default from tuning)")
	trainCmd.Flags().DurationVar(&trainBudget, "max-duration", 0, "Training time budget (default from tuning)")

	datasetCmd.Flags().StringVarP(&datasetOut, "out", "o", "", "Output file (default: stdout)")
	datasetCmd.Flags().IntVar(&datasetSize, "per-condition", 50, "Examples per condition")
	datasetCmd.Flags().Int64Var(&trainSeed, "seed", 0, "Random seed (default from tuning)")

	knowledgeCmd.Flags().StringVarP(&knowledgeOut, "out", "o", "", "Output file (default: stdout)")
	knowledgeCmd.Flags().BoolVar(&knowledgeCheck, "check", false, "Only validate, print nothing")
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := &a.Config.Tuning.Training
	if trainEpochs > 0 {
		opts.Epochs = trainEpochs
	}
	if trainSeed != 0 {
		opts.Seed = trainSeed
	}
	if trainBudget > 0 {
		opts.MaxDuration = trainBudget
	}

	examples, err := a.Dataset()
	if err != nil {
		return err
	}

	start := time.Now()
	fmt.Fprintf(cmd.OutOrStdout(), "Training on %d examples (%d conditions)...\n", len(examples), a.Base.Len())
	if _, err := a.Trainer().TrainAndSave(cmd.Context(), examples, a.Config.ModelPath); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Model saved to %s in %s\n", a.Config.ModelPath, time.Since(start).Round(time.Millisecond))
	return nil
}

func runDataset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := knowledge.Open(cmd.Context(), cfg.KnowledgePath)
	if err != nil {
		return err
	}

	seed := cfg.Tuning.Training.Seed
	if trainSeed != 0 {
		seed = trainSeed
	}
	examples := model.Synthesize(base, seed, datasetSize)

	w := cmd.OutOrStdout()
	if datasetOut != "" {
		fh, err := os.Create(datasetOut)
		if err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	return model.WriteDataset(w, examples)
}

func runKnowledge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := knowledge.Open(cmd.Context(), cfg.KnowledgePath)
	if err != nil {
		return err
	}
	if knowledgeCheck {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d symptoms, %d conditions\n", base.Lexicon().Len(), base.Len())
		return nil
	}

	w := cmd.OutOrStdout()
	if knowledgeOut != "" {
		fh, err := os.Create(knowledgeOut)
		if err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	return knowledge.WriteYAML(w, base)
}
