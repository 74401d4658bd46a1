package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"djangify/internal/config"
	"djangify/internal/llm"
	"djangify/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger

	// clientFactory builds the model client; tests substitute a fake.
	clientFactory = func(ctx context.Context, s llm.Settings) (llm.Client, error) {
		return llm.NewClient(ctx, s)
	}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "djangify",
	Short: "Convert a Ruby on Rails project into a Django project",
	Long: `djangify reads a Rails project, asks a language model to classify and
analyze its sources, synthesizes a Django blueprint and writes the resulting
project tree together with a conversion report.

Stages: plan, discover, convert, build, integrate.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.Init(logging.Options{
			Level:  level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Get(logging.CategoryBoot).Debug("configuration loaded",
			zap.String("config", configPath),
			zap.String("provider", cfg.LLM.Provider))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the djangify version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "djangify %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "djangify.yaml", "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Overall run timeout (0 for none)")

	convertCmd.Flags().BoolVar(&showReadme, "show-readme", false, "Render the generated README in the terminal")
	convertCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Run ledger database (overrides store.ledger_path)")

	checkCmd.Flags().IntVar(&sourceTemplates, "source-templates", 0, "Number of source view templates the blueprint must cover")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Run ledger database (overrides store.ledger_path)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
