package types

import "fmt"

// PreviewEntry describes one planned rename.
type PreviewEntry struct {
	Group        string `json:"group"`
	OriginalPath string `json:"original_path"`
	NewName      string `json:"new_name"`
	EntryPath    string `json:"entry_path"`
}

// String renders the entry the way the preview list shows it.
func (p PreviewEntry) String() string {
	return fmt.Sprintf("%s → %s", p.OriginalPath, p.NewName)
}

// RenamedFile pairs a planned rename with the record it came from.
type RenamedFile struct {
	PreviewEntry
	Record FileRecord
}

// Blob is a finalized archive ready to be downloaded or saved.
type Blob struct {
	Name    string
	Data    []byte
	Entries int
}

// Size returns the payload length in bytes
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}
