// Package archive writes renamed files into a zip container.
package archive

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"renamezip/internal/config"
	"renamezip/internal/errors"
	"renamezip/internal/fileutil"
	"renamezip/internal/log"
	"renamezip/pkg/types"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// DefaultName is the file name of a produced archive.
const DefaultName = "renamed_files.zip"

// Sink receives renamed files and finalizes them into one blob. A sink is
// used for a single package run.
type Sink interface {
	Add(ctx context.Context, entryPath string, content types.Content) error
	Finalize(ctx context.Context) (*types.Blob, error)
}

// Options configures a ZipSink
type Options struct {
	Name     string    // blob name, DefaultName when empty
	Store    bool      // no compression
	Level    int       // deflate level 1-9, flate.DefaultCompression when 0
	Modified time.Time // entry timestamp, now when zero
}

// OptionsFromConfig returns the archive options in cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Name:  cfg.Archive.Name,
		Store: cfg.Archive.Method == config.MethodStore,
		Level: cfg.Archive.Level,
	}
}

// ZipSink builds a zip archive in memory.
type ZipSink struct {
	opts Options

	mu      sync.Mutex
	buf     bytes.Buffer
	w       *zip.Writer
	dirs    map[string]bool
	entries map[string]bool
	done    bool
}

// NewZipSink creates an empty archive.
func NewZipSink(opts Options) *ZipSink {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Modified.IsZero() {
		opts.Modified = time.Now()
	}

	s := &ZipSink{
		opts:    opts,
		dirs:    make(map[string]bool),
		entries: make(map[string]bool),
	}
	s.w = zip.NewWriter(&s.buf)

	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	s.w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return s
}

// Add writes content under entryPath. The first file of every folder is
// preceded by a directory entry for that folder.
func (s *ZipSink) Add(ctx context.Context, entryPath string, content types.Content) error {
	if err := ctx.Err(); err != nil {
		return errors.NewArchiveError("archive cancelled", entryPath, err)
	}
	if err := checkEntryPath(entryPath); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return errors.NewArchiveError("archive already finalized", entryPath, nil)
	}
	if s.entries[entryPath] {
		return errors.NewArchiveError("duplicate archive entry", entryPath, nil)
	}

	if err := s.addDirs(path.Dir(entryPath)); err != nil {
		return err
	}

	rc, err := content.Open()
	if err != nil {
		return errors.NewArchiveError("cannot open file content", entryPath, err)
	}
	defer rc.Close()

	method := zip.Deflate
	if s.opts.Store {
		method = zip.Store
	}
	w, err := s.w.CreateHeader(&zip.FileHeader{
		Name:     entryPath,
		Method:   method,
		Modified: s.opts.Modified,
	})
	if err != nil {
		return errors.NewArchiveError("cannot create archive entry", entryPath, err)
	}
	n, err := io.Copy(w, rc)
	if err != nil {
		return errors.NewArchiveError("cannot write archive entry", entryPath, err)
	}

	s.entries[entryPath] = true
	log.LogWithFields(log.F("entry", entryPath), log.F("bytes", n)).Debug("added archive entry")
	return nil
}

func (s *ZipSink) addDirs(dir string) error {
	if dir == "." || dir == "" || s.dirs[dir] {
		return nil
	}
	if err := s.addDirs(path.Dir(dir)); err != nil {
		return err
	}
	if _, err := s.w.CreateHeader(&zip.FileHeader{
		Name:     dir + "/",
		Method:   zip.Store,
		Modified: s.opts.Modified,
	}); err != nil {
		return errors.NewArchiveError("cannot create folder entry", dir+"/", err)
	}
	s.dirs[dir] = true
	return nil
}

// Finalize closes the archive and returns it. Further calls fail.
func (s *ZipSink) Finalize(ctx context.Context) (*types.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, errors.NewArchiveError("archive already finalized", "", nil)
	}
	s.done = true

	if err := ctx.Err(); err != nil {
		return nil, errors.NewArchiveError("archive cancelled", "", err)
	}
	if err := s.w.Close(); err != nil {
		return nil, errors.NewArchiveError("cannot finalize archive", "", err)
	}

	data := make([]byte, s.buf.Len())
	copy(data, s.buf.Bytes())
	return &types.Blob{Name: s.opts.Name, Data: data, Entries: len(s.entries)}, nil
}

func checkEntryPath(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") || strings.Contains(p, `\`) {
		return errors.NewArchiveError("invalid archive entry path", p, nil)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return errors.NewArchiveError("invalid archive entry path", p, nil)
		}
	}
	return nil
}

// Save writes blob to path atomically, holding path's lock file while
// writing.
func Save(blob *types.Blob, path string) error {
	if blob == nil {
		return errors.NewOperationError("nothing to save")
	}
	if err := fileutil.LockAndWrite(path, blob.Data); err != nil {
		return errors.NewFileError("cannot save archive", path, errors.FileCreateFailed, err)
	}
	log.LogWithFields(log.F("path", path), log.F("entries", blob.Entries)).Info("archive saved")
	return nil
}
