package traverse

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"renamezip/internal/errors"
	"renamezip/internal/log"
	"renamezip/pkg/types"
)

// OSDir is a directory on the local filesystem.
type OSDir struct {
	Path string
}

// OSFile is a regular file on the local filesystem.
type OSFile struct {
	Path string
}

// osOther is anything that is neither a directory nor a regular file.
type osOther struct {
	path string
}

func (d OSDir) Name() string   { return filepath.Base(d.Path) }
func (d OSDir) IsDir() bool    { return true }
func (f OSFile) Name() string  { return filepath.Base(f.Path) }
func (f OSFile) IsDir() bool   { return false }
func (o osOther) Name() string { return filepath.Base(o.path) }
func (o osOther) IsDir() bool  { return false }

// NewEntry stats path and returns the matching entry.
func NewEntry(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileError("dropped item not found", path, errors.FileNotFound, err)
		}
		return nil, errors.NewFileError("cannot access dropped item", path, errors.FileAccessDenied, err)
	}
	return entryFor(path, info), nil
}

func entryFor(path string, info fs.FileInfo) Entry {
	switch {
	case info.IsDir():
		return OSDir{Path: path}
	case info.Mode().IsRegular():
		return OSFile{Path: path}
	default:
		return osOther{path: path}
	}
}

// ReadEntries lists the directory once. Symlinks are resolved; broken links
// come back as entries that fail to read.
func (d OSDir) ReadEntries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		full := filepath.Join(d.Path, de.Name())
		info, err := os.Stat(full)
		if err != nil {
			entries = append(entries, osOther{path: full})
			continue
		}
		entries = append(entries, entryFor(full, info))
	}
	return entries, nil
}

// Content checks that the file can be opened and returns a handle to it.
func (f OSFile) Content(ctx context.Context) (types.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	if err := fh.Close(); err != nil {
		return nil, err
	}
	return types.FileContent{Path: f.Path}, nil
}

// PickDirectory lists every regular file under dir the way a directory
// picker does: relative paths start with the directory's own name.
// Unreadable subdirectories are logged and skipped.
func PickDirectory(dir string) ([]Picked, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileError("input directory not found", dir, errors.FileNotFound, err)
		}
		return nil, errors.NewFileError("cannot access input directory", dir, errors.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("input is not a directory", dir, errors.InvalidPath, nil)
	}

	base := filepath.Base(filepath.Clean(dir))
	var picked []Picked
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			log.LogWithError(errors.NewTraversalError(p, errors.StageReadChildren, err)).Warn("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		picked = append(picked, Picked{
			Name:         d.Name(),
			RelativePath: filepath.ToSlash(filepath.Join(base, rel)),
			Content:      types.FileContent{Path: p},
		})
		return nil
	})
	if err != nil {
		return nil, errors.NewFileError("failed to list input directory", dir, errors.FileOperationFailed, err)
	}
	return picked, nil
}
