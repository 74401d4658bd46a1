package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"djangify/internal/blueprint"
	"djangify/internal/llm"
	"djangify/internal/logging"
	"djangify/internal/pipeline"
	"djangify/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showReadme bool
	ledgerPath string
)

var convertCmd = &cobra.Command{
	Use:   "convert [rails-dir] [output-dir]",
	Short: "Convert a Rails project into a Django project",
	Long: `Runs the full pipeline over a Rails project:
  1. Plan: list the project, scan Ruby sources for meta-programming
  2. Discover: classify files and extract models, controllers, routes and views
  3. Convert: synthesize the Django blueprint (repair and refine when needed)
  4. Build: write the Django project under <output-dir>/<project_name>/
  5. Integrate: write conversion_summary.json, README.md and requirements.txt

Audit records are written to <output-dir>/logs/.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logging.Get(logging.CategoryBoot)

	input, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	output, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}

	// A missing credential stops the run before any stage.
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := runContext()
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	client, err := clientFactory(ctx, cfg.ClientSettings())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	trail, err := logging.NewAuditTrail(filepath.Join(output, "logs"))
	if err != nil {
		return err
	}

	st := pipeline.NewState(input, output)

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
		if _, err := ledger.StartRun(st.RunID, input, output); err != nil {
			log.Warn("failed to record run start", zap.Error(err))
		}
	}

	controller := pipeline.New(llm.NewTracingClient(client, trail), cfg.Pipeline, trail)
	runErr := controller.Run(ctx, st)

	if err := trail.WriteJSON("final_state.json", st); err != nil {
		log.Warn("failed to write final state", zap.Error(err))
	}
	if ledger != nil {
		if err := ledger.FinishRun(st.RunID, outcome(st, runErr)); err != nil {
			log.Warn("failed to record run finish", zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderState(st))
	if runErr != nil {
		return runErr
	}

	if syn := st.Conversion.Synthesis; !syn.Complete() {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Blueprint incomplete (%d gaps):", len(syn.Gaps))))
		for _, g := range syn.Gaps {
			fmt.Fprintf(out, "  - %s\n", g)
		}
	}
	fmt.Fprintln(out, okStyle.Render("Django project written to "+st.Build.Build.ProjectRoot))

	if showReadme {
		data, err := os.ReadFile(st.Integration.Report.Readme)
		if err != nil {
			return fmt.Errorf("failed to read README: %w", err)
		}
		rendered, err := renderMarkdown(string(data))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rendered)
	}
	return nil
}

// runContext bounds the run by --timeout when it is positive.
func runContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// openLedger opens the configured ledger, or returns nil when none is set.
func openLedger() (*store.Ledger, error) {
	path := ledgerPath
	if path == "" {
		path = cfg.Store.LedgerPath
	}
	if path == "" {
		return nil, nil
	}
	l, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return l, nil
}

func outcome(st *pipeline.State, runErr error) store.Outcome {
	out := store.Outcome{Err: runErr}
	if runErr != nil {
		out.FailedStage = string(pipeline.FailedStage(runErr))
	}
	if st.Conversion != nil {
		syn := st.Conversion.Synthesis
		out.Complete = syn.Complete()
		out.Templates = syn.Blueprint.TemplateCount()
		out.SourceTemplates = syn.SourceTemplates
	} else if st.Discovery != nil {
		out.SourceTemplates = blueprint.SourceTemplateCount(st.Discovery.Summary.CandidatesToRead)
	}
	return out
}
