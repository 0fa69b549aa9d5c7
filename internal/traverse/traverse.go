// Package traverse turns input sources into one flat file set. Picker
// lists are concatenated in registration order; dropped directories are
// walked depth-first with one task per subtree and a single join before
// the result is returned. A file reached more than once is kept once,
// keyed on its source rather than on its (possibly sanitized) path.
package traverse

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"renamezip/internal/errors"
	"renamezip/internal/log"
	"renamezip/pkg/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency bounds concurrent directory and content reads.
const DefaultConcurrency = 8

// Entry is one dropped item.
type Entry interface {
	Name() string
	IsDir() bool
}

// Directory is an entry whose children can be listed. ReadEntries is called
// exactly once per directory.
type Directory interface {
	Entry
	ReadEntries(ctx context.Context) ([]Entry, error)
}

// File is an entry with content.
type File interface {
	Entry
	Content(ctx context.Context) (types.Content, error)
}

// Picked is a file selected through a picker input.
type Picked struct {
	Name         string
	RelativePath string // platform supplied, may be empty
	Content      types.Content
}

// FromLists concatenates picker lists in registration order. Duplicates
// are left for Dedupe.
func FromLists(lists ...[]Picked) []types.FileRecord {
	var out []types.FileRecord
	for _, list := range lists {
		for _, p := range list {
			name := p.Name
			if name == "" && p.RelativePath != "" {
				name = path.Base(p.RelativePath)
			}
			if name == "" {
				log.Debug("skipping picked file without a name")
				continue
			}
			var fallback string
			if p.RelativePath != "" {
				fallback = "picked:" + p.RelativePath
			}
			out = append(out, types.FileRecord{
				RelativePath: p.RelativePath,
				Name:         name,
				Content:      p.Content,
				Source:       sourceOf(p.Content, fallback),
			})
		}
	}
	return out
}

// sourceOf identifies a file by its absolute path when it lives on disk,
// otherwise by fallback. An empty fallback makes the record unique.
func sourceOf(c types.Content, fallback string) string {
	if fc, ok := c.(types.FileContent); ok && fc.Path != "" {
		if abs, err := filepath.Abs(fc.Path); err == nil {
			return "file:" + abs
		}
		return "file:" + filepath.Clean(fc.Path)
	}
	return fallback
}

// Dedupe keeps the first record for every source and returns how many
// were dropped. Records without a source are always kept. Records that
// only share a relative path are distinct files and are all kept.
func Dedupe(files []types.FileRecord) ([]types.FileRecord, int) {
	seen := make(map[string]struct{}, len(files))
	out := make([]types.FileRecord, 0, len(files))
	dropped := 0
	for _, f := range files {
		if f.Source != "" {
			if _, dup := seen[f.Source]; dup {
				log.LogWithFields(log.F("path", f.DisplayPath())).Debug("dropping file reached twice")
				dropped++
				continue
			}
			seen[f.Source] = struct{}{}
		}
		out = append(out, f)
	}
	if dropped > 0 {
		log.LogWithFields(log.F("duplicates", dropped)).Warn("dropped files reached more than once")
	}
	return out, dropped
}

// SanitizePath replaces every character outside [A-Za-z0-9-_/] with '_'.
func SanitizePath(p string) string {
	b := make([]byte, 0, len(p))
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '/':
			b = append(b, byte(r))
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}

// ValidateDrop accepts a batch only when it is non-empty and every entry
// is a directory.
func ValidateDrop(entries []Entry) ([]Directory, error) {
	if len(entries) == 0 {
		return nil, errors.NewDropError("nothing was dropped", nil)
	}
	dirs := make([]Directory, len(entries))
	for i, e := range entries {
		d, ok := e.(Directory)
		if !ok || !e.IsDir() {
			return nil, errors.NewDropError(fmt.Sprintf("%q is not a folder", e.Name()), errors.ErrInvalidDropPayload)
		}
		dirs[i] = d
	}
	return dirs, nil
}

// Result is the outcome of one walk.
type Result struct {
	Records    []types.FileRecord
	Skipped    int
	Duplicates int // entries that resolved to a file already found
}

// Walker traverses dropped directories.
type Walker struct {
	Sanitize    bool
	Concurrency int
	Policy      ErrorPolicy // LogAndSkip when nil
}

// NewWalker returns a walker that sanitizes paths and skips failed entries.
func NewWalker() *Walker {
	return &Walker{Sanitize: true, Concurrency: DefaultConcurrency}
}

// found is a record tagged with its depth-first position.
type found struct {
	order  []int
	record types.FileRecord
}

type walk struct {
	w       *Walker
	policy  ErrorPolicy
	group   *errgroup.Group
	sem     *semaphore.Weighted
	skipped atomic.Int64

	mu    sync.Mutex
	found []found
}

// Walk resolves every dropped directory and returns the files found, in
// depth-first order. The batch is rejected as a whole when it is empty or
// holds anything other than directories. Failures on single entries go to
// the policy; Walk only returns once every subtree has been resolved.
func (w *Walker) Walk(ctx context.Context, entries []Entry) (Result, error) {
	dirs, err := ValidateDrop(entries)
	if err != nil {
		return Result{}, err
	}

	concurrency := w.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	policy := w.Policy
	if policy == nil {
		policy = &LogAndSkip{}
	}

	g, gctx := errgroup.WithContext(ctx)
	wk := &walk{
		w:      w,
		policy: policy,
		group:  g,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
	for i, d := range dirs {
		d, order := d, []int{i}
		g.Go(func() error {
			return wk.dir(gctx, d, d.Name()+"/", order)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	records, dups := Dedupe(wk.records())
	return Result{Records: records, Skipped: int(wk.skipped.Load()), Duplicates: dups}, nil
}

func (wk *walk) dir(ctx context.Context, d Directory, parent string, order []int) error {
	if err := wk.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	children, err := d.ReadEntries(ctx)
	wk.sem.Release(1)
	if err != nil {
		return wk.fail(ctx, parent, errors.StageReadChildren, err)
	}

	for i, child := range children {
		childOrder := make([]int, len(order)+1)
		copy(childOrder, order)
		childOrder[len(order)] = i

		if child.IsDir() {
			sub, ok := child.(Directory)
			if !ok {
				if err := wk.fail(ctx, parent+child.Name(), errors.StageReadEntry, fmt.Errorf("directory cannot be listed")); err != nil {
					return err
				}
				continue
			}
			childPath := parent + child.Name() + "/"
			wk.group.Go(func() error {
				return wk.dir(ctx, sub, childPath, childOrder)
			})
			continue
		}

		if err := wk.file(ctx, child, parent, childOrder); err != nil {
			return err
		}
	}
	return nil
}

func (wk *walk) file(ctx context.Context, e Entry, parent string, order []int) error {
	rel := parent + e.Name()
	f, ok := e.(File)
	if !ok || e.Name() == "" {
		return wk.fail(ctx, rel, errors.StageReadEntry, fmt.Errorf("entry is not a readable file"))
	}

	if err := wk.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	content, err := f.Content(ctx)
	wk.sem.Release(1)
	if err != nil {
		return wk.fail(ctx, rel, errors.StageReadContent, err)
	}

	source := sourceOf(content, fmt.Sprintf("drop:%d:%s", order[0], rel))
	if wk.w.Sanitize {
		rel = SanitizePath(rel)
	}
	wk.mu.Lock()
	wk.found = append(wk.found, found{
		order: order,
		record: types.FileRecord{
			RelativePath: rel,
			Name:         e.Name(),
			Content:      content,
			Source:       source,
		},
	})
	wk.mu.Unlock()
	return nil
}

func (wk *walk) fail(ctx context.Context, p, stage string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	wk.skipped.Add(1)
	return wk.policy.OnEntryError(errors.NewTraversalError(p, stage, err))
}

// records sorts by discovery position. Sanitized paths may collide; both
// files are kept and told apart by their ordinals later.
func (wk *walk) records() []types.FileRecord {
	sort.Slice(wk.found, func(i, j int) bool {
		return lessOrder(wk.found[i].order, wk.found[j].order)
	})

	paths := make(map[string]struct{}, len(wk.found))
	out := make([]types.FileRecord, 0, len(wk.found))
	for _, f := range wk.found {
		if _, clash := paths[f.record.RelativePath]; clash {
			log.LogWithFields(log.F("path", f.record.RelativePath), log.F("name", f.record.Name)).
				Debug("sanitized path shared by another file")
		}
		paths[f.record.RelativePath] = struct{}{}
		out = append(out, f.record)
	}
	return out
}

func lessOrder(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
