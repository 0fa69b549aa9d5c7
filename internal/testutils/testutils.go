// Package testutils holds fixtures shared by the package tests: in-memory
// records, fake drop entries, on-disk trees and archive readers.
package testutils

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"renamezip/internal/traverse"
	"renamezip/pkg/types"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Records builds in-memory records for the given relative paths. The
// content of each record is its own path.
func Records(paths ...string) []types.FileRecord {
	out := make([]types.FileRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, types.FileRecord{
			RelativePath: p,
			Name:         path.Base(p),
			Content:      types.BytesContent(p),
		})
	}
	return out
}

// Picked builds a picker list for the given relative paths.
func Picked(paths ...string) []traverse.Picked {
	out := make([]traverse.Picked, 0, len(paths))
	for _, p := range paths {
		out = append(out, traverse.Picked{
			Name:         path.Base(p),
			RelativePath: p,
			Content:      types.BytesContent(p),
		})
	}
	return out
}

// FakeDir is an in-memory drop directory.
type FakeDir struct {
	DirName  string
	Children []traverse.Entry
	Err      error         // returned by ReadEntries when set
	Delay    time.Duration // slows ReadEntries down

	reads atomic.Int32
}

// Dir returns a FakeDir with children.
func Dir(name string, children ...traverse.Entry) *FakeDir {
	return &FakeDir{DirName: name, Children: children}
}

// FailingDir returns a FakeDir whose children cannot be read.
func FailingDir(name string, err error) *FakeDir {
	return &FakeDir{DirName: name, Err: err}
}

func (d *FakeDir) Name() string { return d.DirName }
func (d *FakeDir) IsDir() bool  { return true }

// Reads reports how many times ReadEntries was called.
func (d *FakeDir) Reads() int { return int(d.reads.Load()) }

// ReadEntries implements traverse.Directory
func (d *FakeDir) ReadEntries(ctx context.Context) ([]traverse.Entry, error) {
	d.reads.Add(1)
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Children, nil
}

// FakeFile is an in-memory drop file.
type FakeFile struct {
	FileName string
	Data     []byte
	Err      error // returned by Content when set
}

// File returns a FakeFile holding data.
func File(name, data string) *FakeFile {
	return &FakeFile{FileName: name, Data: []byte(data)}
}

// FailingFile returns a FakeFile whose content cannot be read.
func FailingFile(name string, err error) *FakeFile {
	return &FakeFile{FileName: name, Err: err}
}

func (f *FakeFile) Name() string { return f.FileName }
func (f *FakeFile) IsDir() bool  { return false }

// Content implements traverse.File
func (f *FakeFile) Content(ctx context.Context) (types.Content, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return types.BytesContent(f.Data), nil
}

// Opaque is an entry that is neither a readable directory nor a file.
type Opaque struct {
	EntryName string
	Dir       bool
}

func (o Opaque) Name() string { return o.EntryName }
func (o Opaque) IsDir() bool  { return o.Dir }

// FailingContent is a content handle that cannot be opened.
type FailingContent struct {
	Err error
}

// Open implements types.Content
func (c FailingContent) Open() (io.ReadCloser, error) {
	return nil, c.Err
}

// CreateTree writes files (slash separated relative path → content) under
// dir, creating parent directories.
func CreateTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644), "Failed to create test file")
	}
}

// CreateTestFile creates a simple test file with some content
func CreateTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to create test file")
	return path
}

// ZipEntries reads an archive and returns entry name → content. Directory
// entries map to "".
func ZipEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

// ZipNames returns the entry names of an archive in stored order.
func ZipNames(t *testing.T, data []byte) []string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return names
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
