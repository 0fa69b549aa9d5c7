package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"renamezip/internal/pipeline"
	"renamezip/internal/traverse"
	"renamezip/internal/watch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	mu       sync.Mutex
	loads    []pipeline.Sources
	mappings []string
}

func (f *fakeTarget) LoadFiles(ctx context.Context, src pipeline.Sources) (pipeline.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, src)
	return pipeline.Report{}, nil
}

func (f *fakeTarget) LoadMappingFile(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappings = append(f.mappings, path)
	return nil
}

func TestDaemonReloads(t *testing.T) {
	inputDir := filepath.Join(t.TempDir(), "photos")
	require.NoError(t, os.Mkdir(inputDir, 0755))
	mappingPath := filepath.Join(t.TempDir(), "mapping.csv")
	require.NoError(t, os.WriteFile(mappingPath, []byte("original_folder_name,new_folder_name\n"), 0644))

	target := &fakeTarget{}
	daemon, err := watch.NewDaemon(target, watch.DaemonOptions{
		Directories: []string{inputDir},
		MappingFile: mappingPath,
		Sources: func() (pipeline.Sources, error) {
			picked, err := traverse.PickDirectory(inputDir)
			if err != nil {
				return pipeline.Sources{}, err
			}
			return pipeline.Sources{Lists: [][]traverse.Picked{picked}}, nil
		},
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	reloaded := make(chan watch.Kind, 16)
	daemon.SetCallback(func(kind watch.Kind, err error) {
		assert.NoError(t, err)
		reloaded <- kind
	})

	require.NoError(t, daemon.Start(context.Background()))
	defer daemon.Stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "1.jpg"), []byte("x"), 0644))
	expectReload(t, reloaded, watch.KindInput)

	require.NoError(t, os.WriteFile(mappingPath, []byte("original_folder_name,new_folder_name\nphotos,Trip\n"), 0644))
	expectReload(t, reloaded, watch.KindMapping)

	target.mu.Lock()
	require.NotEmpty(t, target.loads)
	last := target.loads[len(target.loads)-1]
	assert.Equal(t, "photos/1.jpg", last.Lists[0][0].RelativePath)
	assert.Contains(t, target.mappings, mappingPath)
	target.mu.Unlock()

	status := daemon.Status()
	assert.True(t, status.Running)
	assert.GreaterOrEqual(t, status.Reloads, 2)
	assert.Equal(t, mappingPath, status.MappingFile)
}

func expectReload(t *testing.T, ch <-chan watch.Kind, kind watch.Kind) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == kind {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s reload", kind)
		}
	}
}

func TestDaemonValidation(t *testing.T) {
	_, err := watch.NewDaemon(&fakeTarget{}, watch.DaemonOptions{Directories: []string{t.TempDir()}})
	assert.Error(t, err, "inputs need a source builder")

	daemon, err := watch.NewDaemon(&fakeTarget{}, watch.DaemonOptions{})
	require.NoError(t, err)
	assert.Error(t, daemon.Start(context.Background()), "nothing to watch")
	assert.False(t, daemon.Status().Running)

	daemon.Stop()
}

func TestDaemonWithOrchestrator(t *testing.T) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "album")
	require.NoError(t, os.Mkdir(inputDir, 0755))

	o := pipeline.New()
	var _ watch.Target = o

	daemon, err := watch.NewDaemon(o, watch.DaemonOptions{
		Directories: []string{inputDir},
		Sources: func() (pipeline.Sources, error) {
			return pipeline.Sources{Drop: []traverse.Entry{traverse.OSDir{Path: inputDir}}}, nil
		},
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	reloaded := make(chan watch.Kind, 16)
	daemon.SetCallback(func(kind watch.Kind, err error) { reloaded <- kind })
	require.NoError(t, daemon.Start(context.Background()))
	defer daemon.Stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "pic.png"), []byte("png"), 0644))
	expectReload(t, reloaded, watch.KindInput)

	require.Eventually(t, func() bool {
		preview := o.LastPreview()
		return len(preview) == 1 && preview[0].NewName == "album-1.png"
	}, 3*time.Second, 20*time.Millisecond)
}
