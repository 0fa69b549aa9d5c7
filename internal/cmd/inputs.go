package cmd

import (
	"context"
	"fmt"
	"io"

	"renamezip/internal/errors"
	"renamezip/internal/pipeline"
	"renamezip/internal/traverse"

	"github.com/spf13/cobra"
)

// inputFlags are shared by every command that loads a file set.
type inputFlags struct {
	inputs  []string
	drops   []string
	mapping string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "folder to pick files from (repeatable)")
	cmd.Flags().StringArrayVarP(&f.drops, "drop", "d", nil, "folder to drop; every entry must be a directory (repeatable)")
	cmd.Flags().StringVarP(&f.mapping, "mapping", "m", "", "CSV file renaming folders (original_folder_name,new_folder_name)")
}

// dirs lists every folder the flags name, in flag order
func (f *inputFlags) dirs() []string {
	return append(append([]string{}, f.inputs...), f.drops...)
}

// sources resolves the flags against the filesystem. It is called again
// on every reload so new files are picked up.
func (f *inputFlags) sources() (pipeline.Sources, error) {
	if len(f.inputs) == 0 && len(f.drops) == 0 {
		return pipeline.Sources{}, errors.NewOperationError("no inputs: use --input or --drop")
	}

	var src pipeline.Sources
	for _, dir := range f.inputs {
		picked, err := traverse.PickDirectory(dir)
		if err != nil {
			return pipeline.Sources{}, err
		}
		src.Lists = append(src.Lists, picked)
	}
	for _, p := range f.drops {
		entry, err := traverse.NewEntry(p)
		if err != nil {
			return pipeline.Sources{}, err
		}
		src.Drop = append(src.Drop, entry)
	}
	return src, nil
}

// load collects the inputs into orch and applies the mapping file. A bad
// mapping is reported on w and leaves the identity mapping in place.
func (f *inputFlags) load(ctx context.Context, orch *pipeline.Orchestrator, w io.Writer) (pipeline.Report, error) {
	src, err := f.sources()
	if err != nil {
		return pipeline.Report{}, err
	}
	report, err := orch.LoadFiles(ctx, src)
	if err != nil {
		return report, err
	}
	if f.mapping != "" {
		if err := orch.LoadMappingFile(ctx, f.mapping); err != nil {
			fmt.Fprintln(w, warningText(fmt.Sprintf("Mapping ignored: %v", err)))
		}
	}
	return report, nil
}

func newOrchestrator() (*pipeline.Orchestrator, error) {
	return pipeline.NewWithConfig(cfg)
}
