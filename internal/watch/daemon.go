package watch

import (
	"context"
	"sync"
	"time"

	"renamezip/internal/errors"
	"renamezip/internal/log"
	"renamezip/internal/pipeline"
)

// DefaultDebounce is how long the daemon waits for events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Target is what the daemon keeps up to date. *pipeline.Orchestrator
// satisfies it.
type Target interface {
	LoadFiles(ctx context.Context, src pipeline.Sources) (pipeline.Report, error)
	LoadMappingFile(ctx context.Context, path string) error
}

// DaemonOptions configures a Daemon
type DaemonOptions struct {
	Directories []string                         // input directories to watch
	MappingFile string                           // optional
	Sources     func() (pipeline.Sources, error) // rebuilds the inputs after a change
	Debounce    time.Duration
}

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running          bool
	WatchDirectories []string
	MappingFile      string
	LastActivity     time.Time
	Reloads          int
}

// Daemon reloads the pipeline whenever its inputs or mapping file change.
type Daemon struct {
	target  Target
	watcher *Watcher
	opts    DaemonOptions

	reloads      int
	lastActivity time.Time
	callback     func(Kind, error)

	mutex   sync.RWMutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDaemon creates a daemon for target.
func NewDaemon(target Target, opts DaemonOptions) (*Daemon, error) {
	if opts.Sources == nil && len(opts.Directories) > 0 {
		return nil, errors.NewOperationError("watching inputs requires a source builder")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	watcher, err := New()
	if err != nil {
		return nil, err
	}
	return &Daemon{
		target:       target,
		watcher:      watcher,
		opts:         opts,
		lastActivity: time.Now(),
	}, nil
}

// Start begins watching. It returns once every watch is in place.
func (d *Daemon) Start(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.running {
		return errors.NewOperationError("daemon is already running")
	}

	for _, dir := range d.opts.Directories {
		if err := d.watcher.AddDirectory(dir); err != nil {
			return err
		}
	}
	if d.opts.MappingFile != "" {
		if err := d.watcher.WatchMappingFile(d.opts.MappingFile); err != nil {
			return err
		}
	}
	if len(d.watcher.GetDirectories()) == 0 && d.watcher.MappingFile() == "" {
		return errors.NewOperationError("nothing to watch")
	}

	if err := d.watcher.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.processEvents(ctx, d.done)
	return nil
}

// Stop halts the daemon and waits for a reload in progress to finish.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	d.cancel()
	done := d.done
	d.mutex.Unlock()

	d.watcher.Stop()
	<-done
}

// SetCallback sets a function to be called after every reload
func (d *Daemon) SetCallback(cb func(Kind, error)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:          d.running,
		WatchDirectories: d.watcher.GetDirectories(),
		MappingFile:      d.watcher.MappingFile(),
		LastActivity:     d.lastActivity,
		Reloads:          d.reloads,
	}
}

// processEvents collects events until they settle for the debounce
// interval, then reloads what changed: the mapping first, then the inputs.
func (d *Daemon) processEvents(ctx context.Context, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[Kind]bool{}

	events := d.watcher.FileChannel()
	for {
		select {
		case mod, ok := <-events:
			if !ok {
				return
			}
			log.LogWithFields(log.F("file", mod.Path), log.F("kind", mod.Kind.String()), log.F("op", mod.Op.String())).Debug("change detected")

			d.mutex.Lock()
			d.lastActivity = mod.Timestamp
			d.mutex.Unlock()

			pending[mod.Kind] = true
			if timer == nil {
				timer = time.NewTimer(d.opts.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if pending[KindMapping] {
				d.reload(ctx, KindMapping)
			}
			if pending[KindInput] {
				d.reload(ctx, KindInput)
			}
			pending = map[Kind]bool{}

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (d *Daemon) reload(ctx context.Context, kind Kind) {
	var err error
	switch kind {
	case KindMapping:
		err = d.target.LoadMappingFile(ctx, d.opts.MappingFile)
	case KindInput:
		var src pipeline.Sources
		src, err = d.opts.Sources()
		if err == nil {
			_, err = d.target.LoadFiles(ctx, src)
		}
	}

	logger := log.LogWithFields(log.F("kind", kind.String()))
	if err != nil {
		logger.WithError(err).Warn("reload failed")
	} else {
		logger.Info("reloaded")
	}

	d.mutex.Lock()
	d.reloads++
	cb := d.callback
	d.mutex.Unlock()

	if cb != nil {
		cb(kind, err)
	}
}
