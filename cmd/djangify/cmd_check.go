package main

import (
	"errors"
	"fmt"
	"os"

	"djangify/internal/blueprint"

	"github.com/spf13/cobra"
)

var errIncomplete = errors.New("blueprint is incomplete")

var sourceTemplates int

var checkCmd = &cobra.Command{
	Use:   "check <blueprint.json>",
	Short: "Evaluate the completeness predicate on a saved blueprint",
	Long: `Reads a blueprint JSON document and lists every completeness gap.
Exits non-zero when the blueprint is incomplete.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read blueprint: %w", err)
	}
	bp, err := blueprint.Decode(string(data))
	if err != nil {
		return fmt.Errorf("failed to decode blueprint: %w", err)
	}

	out := cmd.OutOrStdout()
	gaps := blueprint.Check(bp, sourceTemplates)
	fmt.Fprintf(out, "%s: %d apps, %d templates (source templates: %d)\n",
		bp.ProjectName, len(bp.Apps), bp.TemplateCount(), sourceTemplates)
	if len(gaps) == 0 {
		fmt.Fprintln(out, okStyle.Render("complete"))
		return nil
	}
	for _, g := range gaps {
		fmt.Fprintf(out, "  - %s\n", g)
	}
	return fmt.Errorf("%w: %d gaps", errIncomplete, len(gaps))
}
