package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"renamezip/internal/archive"
	"renamezip/internal/errors"
	"renamezip/pkg/types"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewPackageCmd creates the package command
func NewPackageCmd() *cobra.Command {
	var (
		flags  inputFlags
		output string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Rename the files and write them to a zip archive",
		Example: `  renamezip package --input ./beach --input ./city
  renamezip package --drop ./photos --mapping folders.csv --output trip.zip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			if bar := newProgressBar(cmd.ErrOrStderr()); bar != nil {
				orch.OnProgress(bar.update)
				defer bar.done()
			}

			report, err := flags.load(cmd.Context(), orch, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !quiet {
				writePreview(out, orch.LastPreview())
				writeSummary(out, report)
			}

			if output == "" {
				output = cfg.Archive.Name
			}
			blob, err := orch.Package(cmd.Context())
			if err != nil {
				return err
			}
			if blob == nil {
				return errors.Wrap(errors.ErrEmptyFileSet, "nothing to package")
			}
			if err := archive.Save(blob, output); err != nil {
				return err
			}

			fmt.Fprintln(out, successText(fmt.Sprintf("Saved %s (%s, %d files)",
				emphasisText(output), humanize.Bytes(uint64(blob.Size())), blob.Entries)))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default from config, renamed_files.zip)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the preview")

	return cmd
}

// progressBar redraws a single terminal line on every checkpoint.
type progressBar struct {
	mu  sync.Mutex
	w   io.Writer
	bar progress.Model
}

// newProgressBar returns nil unless w is a terminal.
func newProgressBar(w io.Writer) *progressBar {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return &progressBar{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p *progressBar) update(u types.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s %-10s", p.bar.ViewAs(u.Percent/100), u.Phase)
}

func (p *progressBar) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
}
