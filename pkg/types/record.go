package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Content is an opaque handle to a file's bytes. It is only opened at
// packaging time.
type Content interface {
	Open() (io.ReadCloser, error)
}

// FileContent reads content from a path on the local filesystem.
type FileContent struct {
	Path string
}

// Open implements Content
func (c FileContent) Open() (io.ReadCloser, error) {
	return os.Open(c.Path)
}

// BytesContent holds content in memory.
type BytesContent []byte

// Open implements Content
func (c BytesContent) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(c)), nil
}

// FileRecord represents one input file
type FileRecord struct {
	RelativePath string  `json:"relative_path"` // empty means no folder context
	Name         string  `json:"name"`          // base file name, never empty
	Content      Content `json:"-"`

	// Source identifies the underlying file. Records sharing a non-empty
	// Source are the same file reached twice.
	Source string `json:"-"`
}

// DisplayPath returns the full original path, or the name for path-less files.
func (f FileRecord) DisplayPath() string {
	if f.RelativePath != "" {
		return f.RelativePath
	}
	return f.Name
}

// Segments splits the relative path on "/".
func (f FileRecord) Segments() []string {
	return strings.Split(f.RelativePath, "/")
}

// ToJSON converts the record to a JSON string
func (f FileRecord) ToJSON() string {
	jsonBytes, _ := json.Marshal(f)
	return string(jsonBytes)
}

// String returns a human-readable representation
func (f FileRecord) String() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.DisplayPath())
}

// FolderGroup is a named bucket of records sharing the first path segment.
type FolderGroup struct {
	Key         string       `json:"key"`
	DisplayName string       `json:"display_name"`
	Members     []FileRecord `json:"members"`
}

// Mapping maps an original group key to a new display name.
type Mapping map[string]string

// Resolve returns the display name for key, falling back to key itself.
func (m Mapping) Resolve(key string) string {
	if name, ok := m[key]; ok && name != "" {
		return name
	}
	return key
}

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
