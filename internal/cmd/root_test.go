package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"renamezip/internal/errors"
	"renamezip/internal/testutils"
	"renamezip/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beachMapping = "original_folder_name,new_folder_name\nbeach,Summer\n"

// syncBuffer lets a test read output while a command is still writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut syncBuffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := root.Execute()
	return testutils.StripANSI(out.String()), testutils.StripANSI(errOut.String()), err
}

// setupInputs creates two picked folders and returns the temp root.
func setupInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.CreateTree(t, dir, map[string]string{
		"beach/1.jpg": "sand",
		"beach/2.jpg": "sea",
		"city/a.png":  "tower",
	})
	return dir
}

func TestRootCommand(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"preview", "package", "watch", "tui", "config"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--json-log")
}

func TestPreviewCommand(t *testing.T) {
	dir := setupInputs(t)
	beach, city := filepath.Join(dir, "beach"), filepath.Join(dir, "city")

	t.Run("identity names", func(t *testing.T) {
		out, _, err := execute(t, "preview", "--input", beach, "--input", city)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.GreaterOrEqual(t, len(lines), 3)
		assert.Equal(t, []string{
			"beach/1.jpg → beach-1.jpg",
			"beach/2.jpg → beach-2.jpg",
			"city/a.png → city-1.png",
		}, lines[:3])
		assert.Contains(t, out, "3 files in 2 groups")
	})

	t.Run("mapping", func(t *testing.T) {
		mappingPath := testutils.CreateTestFile(t, t.TempDir(), "folders.csv", beachMapping)
		out, _, err := execute(t, "preview", "-i", beach, "-i", city, "--mapping", mappingPath)
		require.NoError(t, err)
		assert.Contains(t, out, "beach/1.jpg → Summer-1.jpg")
		assert.Contains(t, out, "city/a.png → city-1.png")
	})

	t.Run("bad mapping keeps identity names", func(t *testing.T) {
		mappingPath := testutils.CreateTestFile(t, t.TempDir(), "folders.csv", "folder,renamed\nbeach,Summer\n")
		out, errOut, err := execute(t, "preview", "-i", beach, "--mapping", mappingPath)
		require.NoError(t, err)
		assert.Contains(t, errOut, "Mapping ignored")
		assert.Contains(t, out, "beach/1.jpg → beach-1.jpg")
	})

	t.Run("same folder twice", func(t *testing.T) {
		out, _, err := execute(t, "preview", "-i", beach, "-i", beach)
		require.NoError(t, err)
		assert.Contains(t, out, "2 files in 1 groups, 2 duplicates dropped")
		assert.NotContains(t, out, "beach-3.jpg")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "preview", "-i", beach, "--json")
		require.NoError(t, err)

		var entries []types.PreviewEntry
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "beach/beach-1.jpg", entries[0].EntryPath)
		assert.Equal(t, "beach", entries[1].Group)
	})
}

func TestPreviewDrop(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTree(t, dir, map[string]string{
		"photos/raw/x.txt": "x",
		"photos/y.txt":     "y",
	})

	out, _, err := execute(t, "preview", "--drop", filepath.Join(dir, "photos"))
	require.NoError(t, err)
	assert.Contains(t, out, "photos-1.txt")
	assert.Contains(t, out, "photos-2.txt")
	assert.Contains(t, out, "2 files in 1 groups")

	_, _, err = execute(t, "preview", "--drop", filepath.Join(dir, "photos", "y.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDropPayload(err), "got %v", err)
}

func TestPreviewInputErrors(t *testing.T) {
	_, _, err := execute(t, "preview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no inputs")

	_, _, err = execute(t, "preview", "--input", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))
}

func TestPackageCommand(t *testing.T) {
	dir := setupInputs(t)
	output := filepath.Join(t.TempDir(), "trip.zip")

	out, _, err := execute(t, "package",
		"-i", filepath.Join(dir, "beach"), "-i", filepath.Join(dir, "city"), "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "beach/1.jpg → beach-1.jpg")
	assert.Regexp(t, `Saved `+regexp.QuoteMeta(output)+` \([^,]+, 3 files\)`, out)
	assert.NotContains(t, out, "run ")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	entries := testutils.ZipEntries(t, data)
	assert.Equal(t, "sand", entries["beach/beach-1.jpg"])
	assert.Equal(t, "sea", entries["beach/beach-2.jpg"])
	assert.Equal(t, "tower", entries["city/city-1.png"])
}

func TestPackageQuiet(t *testing.T) {
	dir := setupInputs(t)
	output := filepath.Join(t.TempDir(), "out.zip")

	out, _, err := execute(t, "package", "-q", "-i", filepath.Join(dir, "city"), "-o", output)
	require.NoError(t, err)
	assert.NotContains(t, out, "→")
	assert.FileExists(t, output)
}

func TestProgressBarRequiresTerminal(t *testing.T) {
	assert.Nil(t, newProgressBar(&bytes.Buffer{}))
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renamezip", "config.yaml")

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--config", path}, args...))
		err := root.Execute()
		return testutils.StripANSI(out.String()), err
	}

	out, err := run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)
	assert.FileExists(t, path)

	_, err = run("config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run("config", "init", "--force")
	require.NoError(t, err)

	out, err = run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "name: renamed_files.zip")
	assert.Contains(t, out, "original_column: original_folder_name")
}

func TestWatchCommand(t *testing.T) {
	dir := setupInputs(t)
	mappingPath := testutils.CreateTestFile(t, t.TempDir(), "folders.csv", beachMapping)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "config.yaml"),
		"watch", "-i", filepath.Join(dir, "beach"), "--mapping", mappingPath, "--debounce", "50ms",
	})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "beach/1.jpg → Summer-1.jpg")

	require.NoError(t, os.WriteFile(mappingPath, []byte("original_folder_name,new_folder_name\nbeach,Winter\n"), 0644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "beach/1.jpg → Winter-1.jpg")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, testutils.StripANSI(out.String()), "Watch stopped")
}
