// Package naming derives the new file names: "<display>-<ordinal>.<ext>".
package naming

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"renamezip/internal/config"
	"renamezip/pkg/types"
)

// Namer generates names from a group display name and a 0-based position.
type Namer struct {
	Separator string
	Pad       int
}

// Default returns the "<display>-<n>" namer with no padding.
func Default() Namer {
	return Namer{Separator: "-"}
}

// NewFromConfig returns a Namer for the naming section of cfg.
func NewFromConfig(cfg *config.Config) Namer {
	return Namer{Separator: cfg.Naming.Separator, Pad: cfg.Naming.Pad}
}

// Name is Default().Name
func Name(file types.FileRecord, position int, displayName string) string {
	return Default().Name(file, position, displayName)
}

// Extension returns the text after the last "." in name, or "" when there
// is none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// Name returns the new name for the file at position (0-based) within the
// group shown as displayName. The original extension is kept.
func (n Namer) Name(file types.FileRecord, position int, displayName string) string {
	ordinal := strconv.Itoa(position + 1)
	if n.Pad > 0 {
		ordinal = fmt.Sprintf("%0*d", n.Pad, position+1)
	}
	base := SafeSegment(displayName) + n.Separator + ordinal

	if ext := Extension(file.Name); ext != "" {
		return base + "." + ext
	}
	return base
}

// SafeSegment makes s usable as a single archive path segment. Only
// separators and the empty, "." and ".." names are changed; anything else,
// surrounding spaces included, is kept as given.
func SafeSegment(s string) string {
	s = strings.NewReplacer("/", "_", `\`, "_").Replace(s)
	switch s {
	case "", ".", "..":
		return "_" + s
	}
	return s
}

// Assign names every member of groups in order. Groups sharing a display
// name continue one ordinal sequence so entry paths stay unique.
func (n Namer) Assign(groups []types.FolderGroup) []types.RenamedFile {
	next := make(map[string]int, len(groups))
	var out []types.RenamedFile

	for _, group := range groups {
		folder := SafeSegment(group.DisplayName)
		for _, member := range group.Members {
			position := next[folder]
			next[folder]++

			newName := n.Name(member, position, group.DisplayName)
			out = append(out, types.RenamedFile{
				PreviewEntry: types.PreviewEntry{
					Group:        group.DisplayName,
					OriginalPath: member.DisplayPath(),
					NewName:      newName,
					EntryPath:    path.Join(folder, newName),
				},
				Record: member,
			})
		}
	}
	return out
}

// Previews strips the records from renamed files.
func Previews(files []types.RenamedFile) []types.PreviewEntry {
	out := make([]types.PreviewEntry, len(files))
	for i, f := range files {
		out[i] = f.PreviewEntry
	}
	return out
}
