package grouping_test

import (
	"math/rand"
	"testing"

	"renamezip/internal/config"
	"renamezip/internal/grouping"
	"renamezip/internal/testutils"
	"renamezip/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberPaths(g types.FolderGroup) []string {
	var out []string
	for _, m := range g.Members {
		out = append(out, m.DisplayPath())
	}
	return out
}

func TestGroupByFirstSegment(t *testing.T) {
	files := testutils.Records("b/x.txt", "a/2.txt", "a/1.txt", "loose.txt", "a/sub/3.txt")

	groups := grouping.Default().Group(files, nil)
	require.Len(t, groups, 3)

	assert.Equal(t, "a", groups[0].Key)
	assert.Equal(t, []string{"a/1.txt", "a/2.txt", "a/sub/3.txt"}, memberPaths(groups[0]))
	assert.Equal(t, "b", groups[1].Key)
	assert.Equal(t, "root", groups[2].Key)
	assert.Equal(t, []string{"loose.txt"}, memberPaths(groups[2]))
}

func TestPathlessFilesUseDefaultGroup(t *testing.T) {
	g, err := grouping.New(grouping.Options{DefaultGroup: "misc"})
	require.NoError(t, err)

	files := []types.FileRecord{
		{Name: "b.txt"},
		{Name: "a.txt"},
		{Name: "c.txt", RelativePath: "/c.txt"},
	}
	groups := g.Group(files, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, "misc", groups[0].Key)
	assert.Equal(t, []string{"/c.txt", "a.txt", "b.txt"}, memberPaths(groups[0]))
}

func TestJunkExcluded(t *testing.T) {
	files := testutils.Records("a/.DS_Store", "a/1.txt", "b/Thumbs.db", "b/._1.jpg", "b/1.jpg")

	groups := grouping.Default().Group(files, nil)
	assert.Equal(t, 4, grouping.Count(groups), "only .DS_Store is built in")

	g, err := grouping.New(grouping.Options{Exclude: []string{"Thumbs.db", "._*"}})
	require.NoError(t, err)
	groups = g.Group(files, nil)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a/1.txt"}, memberPaths(groups[0]))
	assert.Equal(t, []string{"b/1.jpg"}, memberPaths(groups[1]))

	for _, f := range grouping.Flatten(groups) {
		assert.NotEqual(t, ".DS_Store", f.Name)
	}
}

func TestMappingOnlyChangesDisplayName(t *testing.T) {
	files := testutils.Records("a/1.txt", "a/2.txt", "b/x.txt")
	g := grouping.Default()

	plain := g.Group(files, nil)
	mapped := g.Group(files, types.Mapping{"a": "Archive"})

	require.Len(t, mapped, len(plain))
	for i := range plain {
		assert.Equal(t, plain[i].Key, mapped[i].Key)
		assert.Equal(t, plain[i].Members, mapped[i].Members)
	}
	assert.Equal(t, "Archive", mapped[0].DisplayName)
	assert.Equal(t, "b", mapped[1].DisplayName)
}

func TestGroupingIsDeterministic(t *testing.T) {
	files := testutils.Records(
		"trip/IMG_10.jpg", "trip/IMG_2.jpg", "trip/IMG_1.jpg",
		"docs/b.pdf", "docs/a.pdf", "notes.md", "docs/Z.pdf",
	)
	g := grouping.Default()
	want := g.Group(files, nil)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.FileRecord(nil), files...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, g.Group(shuffled, nil))
	}

	// Case-sensitive lexical ordering: uppercase sorts first
	assert.Equal(t, []string{"docs/Z.pdf", "docs/a.pdf", "docs/b.pdf"}, memberPaths(want[0]))
	assert.Equal(t, []string{"trip/IMG_1.jpg", "trip/IMG_10.jpg", "trip/IMG_2.jpg"}, memberPaths(want[2]))
}

func TestGroupingIsIdempotent(t *testing.T) {
	files := testutils.Records("b/2.txt", "a/1.txt", "b/1.txt", "x.txt", "a/.DS_Store")
	mapping := types.Mapping{"b": "Beta"}
	g := grouping.Default()

	once := g.Group(files, mapping)
	twice := g.Group(grouping.Flatten(once), mapping)
	assert.Equal(t, once, twice)
}

func TestLocaleSort(t *testing.T) {
	cfg := config.New()
	cfg.Grouping.Sort = config.SortLocale
	cfg.Grouping.Locale = "en"
	g, err := grouping.NewFromConfig(cfg)
	require.NoError(t, err)

	groups := g.Group(testutils.Records("docs/b.pdf", "docs/Z.pdf", "docs/a.pdf"), nil)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"docs/a.pdf", "docs/b.pdf", "docs/Z.pdf"}, memberPaths(groups[0]))
}

func TestInvalidOptions(t *testing.T) {
	_, err := grouping.New(grouping.Options{Exclude: []string{"[unclosed"}})
	assert.Error(t, err)

	_, err = grouping.New(grouping.Options{Sort: config.SortLocale, Locale: "not a locale!"})
	assert.Error(t, err)
}
