package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"renamezip/internal/pipeline"
	"renamezip/pkg/types"

	"github.com/spf13/cobra"
)

// NewPreviewCmd creates the preview command
func NewPreviewCmd() *cobra.Command {
	var (
		flags      inputFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the planned renames without writing anything",
		Example: `  renamezip preview --input ./beach --input ./city
  renamezip preview --drop ./photos --mapping folders.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			report, err := flags.load(cmd.Context(), orch, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writePreviewJSON(out, orch.LastPreview())
			}
			writePreview(out, orch.LastPreview())
			writeSummary(out, report)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output the preview as JSON")

	return cmd
}

// writePreview prints one "original → new" line per entry.
func writePreview(w io.Writer, entries []types.PreviewEntry) {
	for _, e := range entries {
		fmt.Fprintln(w, e.String())
	}
}

func writePreviewJSON(w io.Writer, entries []types.PreviewEntry) error {
	if entries == nil {
		entries = []types.PreviewEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

func writeSummary(w io.Writer, report pipeline.Report) {
	line := fmt.Sprintf("%d files in %d groups", report.Files, report.Groups)
	if report.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", report.Skipped)
	}
	if report.Duplicates > 0 {
		line += fmt.Sprintf(", %d duplicates dropped", report.Duplicates)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, infoText(line))
}
