package naming

import (
	"strconv"
	"strings"
	"testing"

	"renamezip/internal/grouping"
	"renamezip/internal/testutils"
	"renamezip/pkg/types"

	alsrt "github.com/alecthomas/assert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		file     string
		position int
		display  string
		want     string
	}{
		{"1.txt", 0, "a", "a-1.txt"},
		{"2.txt", 1, "a", "a-2.txt"},
		{"photo.final.JPG", 9, "Trip", "Trip-10.JPG"},
		{"README", 0, "a", "a-1"},
		{"trailing.", 0, "a", "a-1"},
		{".bashrc", 2, "home", "home-3.bashrc"},
		{"x.tar.gz", 0, "Archive", "Archive-1.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got := Name(types.FileRecord{Name: tt.file}, tt.position, tt.display)
			alsrt.Equal(t, tt.want, got)
		})
	}
}

func TestNamerOptions(t *testing.T) {
	n := Namer{Separator: "_", Pad: 3}
	alsrt.Equal(t, "Trip_007.jpg", n.Name(types.FileRecord{Name: "x.jpg"}, 6, "Trip"))
	alsrt.Equal(t, "Trip_1234.jpg", n.Name(types.FileRecord{Name: "x.jpg"}, 1233, "Trip"))
}

func TestSafeSegment(t *testing.T) {
	alsrt.Equal(t, "a_b", SafeSegment("a/b"))
	alsrt.Equal(t, "a_b", SafeSegment(`a\b`))
	alsrt.Equal(t, "_..", SafeSegment(".."))
	alsrt.Equal(t, "_", SafeSegment(""))
	alsrt.Equal(t, "_.", SafeSegment("."))
	alsrt.Equal(t, " Archive ", SafeSegment(" Archive "))
}

func TestNameKeepsDisplayNameVerbatim(t *testing.T) {
	n := Default()
	alsrt.Equal(t, " Archive -1.txt", n.Name(types.FileRecord{Name: "x.txt"}, 0, " Archive "))

	groups := []types.FolderGroup{{
		Key:         "a",
		DisplayName: "My Trip",
		Members:     testutils.Records("a/1.txt"),
	}}
	renamed := n.Assign(groups)
	require.Len(t, renamed, 1)
	assert.Equal(t, "My Trip/My Trip-1.txt", renamed[0].EntryPath)
}

func TestAssignScenario(t *testing.T) {
	files := testutils.Records("a/1.txt", "a/2.txt", "b/x.txt")

	renamed := Default().Assign(grouping.Default().Group(files, nil))
	require.Len(t, renamed, 3)
	assert.Equal(t, []string{"a/a-1.txt", "a/a-2.txt", "b/b-1.txt"}, entryPaths(renamed))

	mapped := Default().Assign(grouping.Default().Group(files, types.Mapping{"a": "Archive"}))
	assert.Equal(t, []string{"Archive/Archive-1.txt", "Archive/Archive-2.txt", "b/b-1.txt"}, entryPaths(mapped))
	assert.Equal(t, "a/1.txt → Archive-1.txt", mapped[0].String())
}

func TestAssignOrdinalsFollowSortedOrder(t *testing.T) {
	var paths []string
	for i := 12; i >= 1; i-- {
		paths = append(paths, "shots/img"+strconv.Itoa(i)+".png")
	}
	groups := grouping.Default().Group(testutils.Records(paths...), nil)
	renamed := Default().Assign(groups)

	seen := make(map[string]bool)
	for i, r := range renamed {
		assert.Equal(t, groups[0].Members[i].DisplayPath(), r.OriginalPath)
		assert.Equal(t, "shots-"+strconv.Itoa(i+1)+".png", r.NewName)
		assert.False(t, seen[r.NewName], "duplicate name %s", r.NewName)
		seen[r.NewName] = true
	}
}

func TestAssignSharedDisplayName(t *testing.T) {
	files := testutils.Records("a/1.txt", "b/1.txt", "b/2.txt")
	groups := grouping.Default().Group(files, types.Mapping{"a": "Same", "b": "Same"})
	require.Len(t, groups, 2, "membership is unchanged by the mapping")

	renamed := Default().Assign(groups)
	assert.Equal(t, []string{"Same/Same-1.txt", "Same/Same-2.txt", "Same/Same-3.txt"}, entryPaths(renamed))
}

func TestAssignUnsafeDisplayName(t *testing.T) {
	groups := grouping.Default().Group(testutils.Records("a/1.txt"), types.Mapping{"a": "../evil"})
	renamed := Default().Assign(groups)
	require.Len(t, renamed, 1)
	assert.Equal(t, ".._evil/.._evil-1.txt", renamed[0].EntryPath)
	assert.False(t, strings.HasPrefix(renamed[0].EntryPath, "../"))
	assert.Equal(t, "../evil", renamed[0].Group)
}

func entryPaths(files []types.RenamedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.EntryPath
	}
	return out
}
