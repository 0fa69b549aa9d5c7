package cmd

import (
	"renamezip/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// NewTUICmd creates the interactive command
func NewTUICmd() *cobra.Command {
	var (
		flags  inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Preview and package interactively",
		Long:  `Opens a terminal UI with the live preview and progress. Press p to package, r to reload, ? for help and q to quit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.Archive.Name
			}

			m := tui.New(cmd.Context(), orch, tui.Options{
				Sources:     flags.sources,
				MappingFile: flags.mapping,
				Output:      output,
			})
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default from config, renamed_files.zip)")

	return cmd
}
