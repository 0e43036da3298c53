// Package daemon provides the background sync daemon.
//
// The daemon:
// 1. Watches the local replica directory for record file changes
// 2. Debounces rapid edits into a single sync run
// 3. Runs a periodic full sync as a safety net
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kestrel-tools/todosync/internal/reconcile"
)

// Config holds configuration for the daemon.
type Config struct {
	// Mode is the sync direction for every run.
	Mode reconcile.Mode

	// SyncInterval is how often to run a full sync regardless of
	// file events.
	SyncInterval time.Duration

	// DebounceInterval is how long to wait after the last file event
	// before syncing. This batches rapid edits together.
	DebounceInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger

	// OnReport, if set, is called after every completed sync run.
	// Used to record history and push dashboard updates.
	OnReport func(*reconcile.Report)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:             reconcile.ModeTwoWay,
		SyncInterval:     30 * time.Second,
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the local replica directory and keeps the two
// replicas converged.
type Daemon struct {
	rec      *reconcile.Reconciler
	watchDir string
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> last event time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon that syncs whenever files under watchDir
// change. watchDir may be empty, in which case only the periodic
// sync runs.
func New(rec *reconcile.Reconciler, watchDir string, config *Config) (*Daemon, error) {
	if rec == nil {
		return nil, fmt.Errorf("reconciler cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	var watcher *fsnotify.Watcher
	if watchDir != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		rec:         rec,
		watchDir:    watchDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon performs an initial full sync, then reacts to file
// events and the periodic timer. This blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Printf("Starting daemon (%s, every %v)", d.config.Mode, d.config.SyncInterval)

	d.runSync(ctx)

	if d.watcher != nil {
		if err := d.watcher.Add(d.watchDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d.watchDir, err)
		}
		d.config.Logger.Printf("Watching: %s", d.watchDir)

		d.wg.Add(1)
		go d.watchFileEvents()
	}

	d.wg.Add(2)
	go d.processChangeQueue(ctx)
	go d.periodicSync(ctx)

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// Only care about Create, Write, Remove
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}

			// Only record files
			if filepath.Ext(event.Name) != ".json" {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a file change, resetting its debounce window.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// pendingSettled reports whether queued changes exist that have been
// quiet for at least the debounce interval, and drains them if so.
func (d *Daemon) pendingSettled() bool {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	if len(d.changeQueue) == 0 {
		return false
	}

	now := time.Now()
	for _, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			return false
		}
	}

	d.changeQueue = make(map[string]time.Time)
	return true
}

// processChangeQueue triggers a sync once queued changes settle.
func (d *Daemon) processChangeQueue(ctx context.Context) {
	defer d.wg.Done()

	interval := d.config.DebounceInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if d.pendingSettled() {
				d.runSync(ctx)
			}
		}
	}
}

// periodicSync runs a full sync on the configured interval.
func (d *Daemon) periodicSync(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.runSync(ctx)
		}
	}
}

// runSync performs one reconcile run. Failures are logged and the
// daemon keeps going; a transient outage resolves on a later run.
func (d *Daemon) runSync(ctx context.Context) {
	report, err := d.rec.Run(ctx, d.config.Mode)
	if err != nil {
		d.config.Logger.Printf("Sync failed: %v", err)
		if report == nil {
			return
		}
	}

	if d.config.OnReport != nil {
		d.config.OnReport(report)
	}
}
