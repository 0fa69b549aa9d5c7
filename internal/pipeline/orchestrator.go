// Package pipeline drives collect → group → name → package and owns the
// loaded file set, the rename mapping and the progress scalar.
package pipeline

import (
	"context"
	"io"
	"sync"

	"renamezip/internal/archive"
	"renamezip/internal/config"
	"renamezip/internal/grouping"
	"renamezip/internal/log"
	"renamezip/internal/mapping"
	"renamezip/internal/naming"
	"renamezip/internal/traverse"
	"renamezip/pkg/types"

	"github.com/google/uuid"
)

// Sources are the inputs of one LoadFiles call. Picker lists come first,
// in order, followed by the files found under the dropped directories.
type Sources struct {
	Lists [][]traverse.Picked
	Drop  []traverse.Entry
}

// Report summarizes a LoadFiles call.
type Report struct {
	RunID      string
	Files      int
	Skipped    int
	Duplicates int // files reached through more than one input
	Groups     int
	Preview    []types.PreviewEntry
}

// Orchestrator sequences the pipeline. Operations are serialized; queries
// may run concurrently with them and observe either the old or the new
// file set, never a mix.
type Orchestrator struct {
	op sync.Mutex // held for the whole of an operation

	mu          sync.RWMutex
	files       []types.FileRecord
	mapping     types.Mapping
	phase       types.Phase
	progress    float64
	lastPreview []types.PreviewEntry
	observers   []func(types.ProgressUpdate)

	grouper *grouping.Grouper
	namer   naming.Namer
	walker  *traverse.Walker
	parser  *mapping.Parser
	ranges  config.Progress
	newSink func() archive.Sink
}

// New creates an orchestrator with the built-in rules.
func New() *Orchestrator {
	return &Orchestrator{
		mapping: types.Mapping{},
		grouper: grouping.Default(),
		namer:   naming.Default(),
		walker:  traverse.NewWalker(),
		parser:  mapping.NewParser(mapping.OriginalColumn, mapping.NewColumn),
		ranges:  DefaultRanges,
		newSink: func() archive.Sink {
			return archive.NewZipSink(archive.Options{})
		},
	}
}

// NewWithConfig creates an orchestrator configured by cfg.
func NewWithConfig(cfg *config.Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grouper, err := grouping.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := archive.OptionsFromConfig(cfg)
	o := New()
	o.grouper = grouper
	o.namer = naming.NewFromConfig(cfg)
	o.walker = &traverse.Walker{
		Sanitize:    cfg.Traversal.Sanitize,
		Concurrency: cfg.Traversal.Concurrency,
	}
	o.parser = mapping.NewParser(cfg.Mapping.OriginalColumn, cfg.Mapping.NewColumn)
	o.ranges = cfg.Progress
	o.newSink = func() archive.Sink {
		return archive.NewZipSink(opts)
	}
	return o, nil
}

// SetSinkFactory replaces the archive sink used by Package.
func (o *Orchestrator) SetSinkFactory(fn func() archive.Sink) {
	o.op.Lock()
	defer o.op.Unlock()
	o.newSink = fn
}

// SetErrorPolicy sets how unreadable dropped entries are handled.
func (o *Orchestrator) SetErrorPolicy(p traverse.ErrorPolicy) {
	o.op.Lock()
	defer o.op.Unlock()
	walker := *o.walker
	walker.Policy = p
	o.walker = &walker
}

// LoadFiles collects the files of src, replaces the current file set and
// previews it. An invalid drop or a failed traversal leaves the previous
// state in place.
func (o *Orchestrator) LoadFiles(ctx context.Context, src Sources) (Report, error) {
	o.op.Lock()
	defer o.op.Unlock()

	report := Report{RunID: uuid.NewString()}
	logger := log.LogWithFields(log.F("run", report.RunID))

	if len(src.Drop) > 0 {
		if _, err := traverse.ValidateDrop(src.Drop); err != nil {
			logger.WithError(err).Warn("drop rejected")
			return report, err
		}
	}

	previous := o.Phase()
	o.emit(types.Collecting, 0, 0, 0, "collecting files")

	files := traverse.FromLists(src.Lists...)
	if len(src.Drop) > 0 {
		res, err := o.walker.Walk(ctx, src.Drop)
		if err != nil {
			logger.WithError(err).Error("traversal failed")
			o.emit(previous, 0, 0, 0, "collection aborted")
			return report, err
		}
		files = append(files, res.Records...)
		report.Skipped = res.Skipped
		report.Duplicates = res.Duplicates
	}
	files, dups := traverse.Dedupe(files)
	report.Duplicates += dups

	o.mu.Lock()
	o.files = files
	o.lastPreview = nil
	o.mu.Unlock()
	report.Files = len(files)

	logger.With(log.F("files", len(files)), log.F("skipped", report.Skipped),
		log.F("duplicates", report.Duplicates)).Info("file set loaded")

	if len(files) == 0 {
		o.emit(types.Idle, 0, 0, 0, "no files loaded")
		return report, nil
	}

	preview, groups, err := o.preview(ctx, logger)
	if err != nil {
		return report, err
	}
	report.Preview = preview
	report.Groups = groups
	return report, nil
}

// LoadMapping replaces the rename mapping with the one parsed from r. A
// source that cannot be parsed resets the mapping to identity and the
// error is returned. Either way a loaded file set is previewed again.
func (o *Orchestrator) LoadMapping(ctx context.Context, r io.Reader) error {
	o.op.Lock()
	defer o.op.Unlock()

	m, err := o.parser.Parse(r)
	return o.applyMapping(ctx, m, err)
}

// LoadMappingFile is LoadMapping for a CSV file on disk.
func (o *Orchestrator) LoadMappingFile(ctx context.Context, path string) error {
	o.op.Lock()
	defer o.op.Unlock()

	m, err := o.parser.LoadFile(path)
	return o.applyMapping(ctx, m, err)
}

// ClearMapping resets the mapping to identity.
func (o *Orchestrator) ClearMapping(ctx context.Context) error {
	o.op.Lock()
	defer o.op.Unlock()

	return o.applyMapping(ctx, types.Mapping{}, nil)
}

func (o *Orchestrator) applyMapping(ctx context.Context, m types.Mapping, parseErr error) error {
	logger := log.LogWithFields(log.F("run", uuid.NewString()))
	if parseErr != nil {
		logger.WithError(parseErr).Warn("mapping rejected, using identity mapping")
		m = types.Mapping{}
	}

	o.mu.Lock()
	o.mapping = m
	loaded := len(o.files) > 0
	o.mu.Unlock()
	logger.With(log.F("entries", len(m))).Info("mapping replaced")

	if loaded {
		if _, _, err := o.preview(ctx, logger); err != nil {
			return err
		}
	}
	return parseErr
}

// Preview groups and names the current file set. The returned entries are
// also kept for LastPreview.
func (o *Orchestrator) Preview(ctx context.Context) ([]types.PreviewEntry, error) {
	o.op.Lock()
	defer o.op.Unlock()

	preview, _, err := o.preview(ctx, log.LogWithFields(log.F("run", uuid.NewString())))
	return preview, err
}

func (o *Orchestrator) preview(ctx context.Context, logger *log.Logger) ([]types.PreviewEntry, int, error) {
	files, m := o.snapshot()
	s := span{o.ranges.PreviewStart, o.ranges.PreviewEnd}

	if len(files) == 0 {
		o.emit(types.Idle, s.end, 0, 0, "nothing to preview")
		return nil, 0, nil
	}

	o.emit(types.Grouped, s.start, 0, len(files), "grouping files")
	groups := o.grouper.Group(files, m)
	renamed := o.namer.Assign(groups)

	total := len(renamed)
	preview := make([]types.PreviewEntry, 0, total)
	for i, rf := range renamed {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		preview = append(preview, rf.PreviewEntry)
		o.emit(types.Grouped, s.at(i+1, total, false), i+1, total, rf.String())
	}

	o.mu.Lock()
	o.lastPreview = preview
	o.mu.Unlock()
	o.emit(types.Grouped, s.end, total, total, "preview ready")

	logger.With(log.F("groups", len(groups)), log.F("files", total)).Info("preview ready")
	out := make([]types.PreviewEntry, total)
	copy(out, preview)
	return out, len(groups), nil
}

// Package writes every renamed file into a new archive and returns it.
// With no files loaded it does nothing and returns nil. Archive failures
// are fatal and returned as is.
func (o *Orchestrator) Package(ctx context.Context) (*types.Blob, error) {
	o.op.Lock()
	defer o.op.Unlock()

	runID := uuid.NewString()
	logger := log.LogWithFields(log.F("run", runID))

	files, m := o.snapshot()
	if len(files) == 0 {
		logger.Debug("packaging disabled: no files loaded")
		return nil, nil
	}

	s := span{o.ranges.PackageStart, o.ranges.PackageEnd}
	o.emit(types.Packaging, s.start, 0, len(files), "packaging")

	groups := o.grouper.Group(files, m)
	renamed := o.namer.Assign(groups)
	preview := naming.Previews(renamed)

	fail := func(err error) (*types.Blob, error) {
		logger.WithError(err).Error("packaging failed")
		o.emit(types.Grouped, o.Progress(), 0, 0, "packaging failed")
		return nil, err
	}

	sink := o.newSink()
	total := len(renamed)
	for i, rf := range renamed {
		if err := sink.Add(ctx, rf.EntryPath, rf.Record.Content); err != nil {
			return fail(err)
		}
		o.emit(types.Packaging, s.at(i+1, total, true), i+1, total, rf.EntryPath)
	}

	blob, err := sink.Finalize(ctx)
	if err != nil {
		return fail(err)
	}

	o.mu.Lock()
	o.lastPreview = preview
	o.mu.Unlock()
	o.emit(types.Complete, s.end, total, total, "archive ready")

	logger.With(log.F("entries", blob.Entries), log.F("bytes", blob.Size()), log.F("name", blob.Name)).Info("archive ready")
	return blob, nil
}

func (o *Orchestrator) snapshot() ([]types.FileRecord, types.Mapping) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.files, o.mapping
}

// Phase returns the current pipeline phase
func (o *Orchestrator) Phase() types.Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

// Progress returns the last progress checkpoint in [0,100]
func (o *Orchestrator) Progress() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progress
}

// Files returns a copy of the loaded file set
func (o *Orchestrator) Files() []types.FileRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]types.FileRecord, len(o.files))
	copy(out, o.files)
	return out
}

// Mapping returns a copy of the current rename mapping
func (o *Orchestrator) Mapping() types.Mapping {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.mapping.Clone()
}

// CanPackage reports whether at least one file is loaded.
func (o *Orchestrator) CanPackage() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.files) > 0
}

// LastPreview returns the entries of the most recent preview
func (o *Orchestrator) LastPreview() []types.PreviewEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]types.PreviewEntry, len(o.lastPreview))
	copy(out, o.lastPreview)
	return out
}

// Groups returns the current grouping of the loaded file set.
func (o *Orchestrator) Groups() []types.FolderGroup {
	files, m := o.snapshot()
	return o.grouper.Group(files, m)
}
