package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"renamezip/internal/errors"
	"renamezip/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Kind tells which watched input changed
type Kind int

const (
	// KindInput is a change below an input directory
	KindInput Kind = iota
	// KindMapping is a change to the mapping file
	KindMapping
)

func (k Kind) String() string {
	if k == KindMapping {
		return "mapping"
	}
	return "input"
}

// FileModification represents a change detected by the watcher
type FileModification struct {
	Path      string
	Kind      Kind
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher monitors input directories and a mapping file using fsnotify
type Watcher struct {
	// Input directories being watched, each with its whole subtree
	directories []string

	// Mapping file, watched through its parent directory
	mappingFile string

	// Channel to receive file modifications
	fileModChan chan FileModification

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
}

// New creates a new watcher
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		directories: []string{},
		fileModChan: make(chan FileModification, 64),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory watches dir and every directory below it.
func (w *Watcher) AddDirectory(dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return errors.NewFileError("invalid directory", dir, errors.InvalidPath, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewFileError("error accessing directory", dir, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", dir, errors.InvalidPath, nil)
	}

	if err := w.addTree(dir); err != nil {
		return err
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	log.LogWithFields(log.F("directory", dir)).Info("Watching directory")
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			log.LogWithError(err).Warn("cannot watch subdirectory")
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return errors.NewFileError("failed to watch directory", p, errors.FileOperationFailed, err)
		}
		return nil
	})
}

// WatchMappingFile reports changes to the file at path. Its directory is
// watched so that editors replacing the file are noticed too.
func (w *Watcher) WatchMappingFile(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.NewFileError("invalid mapping path", path, errors.InvalidPath, err)
	}
	if err := w.fsWatcher.Add(filepath.Dir(path)); err != nil {
		return errors.NewFileError("failed to watch mapping file", path, errors.FileOperationFailed, err)
	}

	w.mutex.Lock()
	w.mappingFile = path
	w.mutex.Unlock()

	log.LogWithFields(log.F("file", path)).Info("Watching mapping file")
	return nil
}

// FileChannel returns the channel that delivers file modification events
func (w *Watcher) FileChannel() <-chan FileModification {
	return w.fileModChan
}

// Start begins the event loop
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.NewOperationError("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go func() {
		log.Debug("Watcher event loop started")
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				w.handle(event)

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithError(err).Error("fsnotify watcher error")

			case <-stop:
				return
			}
		}
	}()

	log.Info("Watcher started")
	return nil
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	kind, ok := w.classify(event.Name)
	if !ok {
		return
	}
	if kind == KindMapping && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	if kind == KindInput && event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.LogWithError(err).Warn("cannot watch new directory")
			}
		}
	}

	mod := FileModification{
		Path:      event.Name,
		Kind:      kind,
		Op:        event.Op,
		Timestamp: time.Now(),
	}

	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if !w.running {
		return
	}
	select {
	case w.fileModChan <- mod:
	default:
		log.LogWithFields(log.F("file", event.Name)).Warn("Event channel is full, dropped event")
	}
}

func (w *Watcher) classify(name string) (Kind, bool) {
	name = filepath.Clean(name)

	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.mappingFile != "" && name == w.mappingFile {
		return KindMapping, true
	}
	for _, dir := range w.directories {
		if name == dir || strings.HasPrefix(name, dir+string(filepath.Separator)) {
			return KindInput, true
		}
	}
	return KindInput, false
}

// Stop halts the watcher and closes the event channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}

	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}
	w.running = false

	// Closed under the lock so handle never sends on a closed channel
	close(w.fileModChan)

	log.Info("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the input directories being watched
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirsCopy := make([]string, len(w.directories))
	copy(dirsCopy, w.directories)
	return dirsCopy
}

// MappingFile returns the watched mapping file, if any
func (w *Watcher) MappingFile() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.mappingFile
}
