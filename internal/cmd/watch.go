package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"renamezip/internal/archive"
	"renamezip/internal/pipeline"
	"renamezip/internal/watch"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var (
		flags       inputFlags
		autoPackage bool
		output      string
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the input folders and mapping file and re-preview on change",
		Long: `Watch loads the inputs once, then keeps the preview up to date: editing the
mapping file re-applies it, adding or removing files re-collects the inputs.
With --package every reload also rewrites the archive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			report, err := flags.load(cmd.Context(), orch, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			writePreview(out, orch.LastPreview())
			writeSummary(out, report)

			if output == "" {
				output = cfg.Archive.Name
			}

			daemon, err := watch.NewDaemon(orch, watch.DaemonOptions{
				Directories: flags.dirs(),
				MappingFile: flags.mapping,
				Sources:     flags.sources,
				Debounce:    debounce,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var mu sync.Mutex
			daemon.SetCallback(func(kind watch.Kind, err error) {
				mu.Lock()
				defer mu.Unlock()
				onReload(ctx, out, orch, kind, err, autoPackage, output)
			})

			if err := daemon.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, infoText(fmt.Sprintf("Watching %d folders. Press Ctrl+C to stop.", len(daemon.Status().WatchDirectories))))

			<-ctx.Done()

			daemon.Stop()
			fmt.Fprintln(out, successText(fmt.Sprintf("Watch stopped after %d reloads", daemon.Status().Reloads)))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&autoPackage, "package", "p", false, "Rewrite the archive after every reload")
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path used with --package")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a burst of changes is reloaded")

	return cmd
}

func onReload(ctx context.Context, out io.Writer, orch *pipeline.Orchestrator, kind watch.Kind, err error, autoPackage bool, output string) {
	if err != nil {
		fmt.Fprintln(out, errorText(fmt.Sprintf("Reload of %s failed: %v", kind, err)))
		// a rejected mapping falls back to identity names, show them
		if kind != watch.KindMapping {
			return
		}
	} else {
		fmt.Fprintln(out, infoText(fmt.Sprintf("%s changed", kind)))
	}
	writePreview(out, orch.LastPreview())

	if !autoPackage || !orch.CanPackage() {
		return
	}
	blob, err := orch.Package(ctx)
	if err == nil && blob != nil {
		err = archive.Save(blob, output)
	}
	if err != nil {
		fmt.Fprintln(out, errorText(fmt.Sprintf("Packaging failed: %v", err)))
		return
	}
	fmt.Fprintln(out, successText(fmt.Sprintf("Saved %s (%s)", output, humanize.Bytes(uint64(blob.Size())))))
}
