// Package watch reruns builds when source content changes: a filesystem
// watcher with debounce, and an optional fixed-interval schedule. It only
// rebuilds; serving output is out of scope.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// RebuildFunc runs one build. Errors are logged and the watcher keeps
// running; a broken edit should not kill the watch session.
type RebuildFunc func(ctx context.Context) error

// Sequential wraps rebuild so overlapping triggers run one build at a time.
// The debounce loop and an interval schedule can fire concurrently, and two
// builds writing the same output directory would tear it.
func Sequential(rebuild RebuildFunc) RebuildFunc {
	var mu sync.Mutex
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		return rebuild(ctx)
	}
}

// Watcher triggers rebuilds on filesystem changes under a source root.
type Watcher struct {
	root     string
	debounce time.Duration
	rebuild  RebuildFunc
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher over root. Rapid event bursts (editor saves,
// git checkouts) are coalesced by the debounce window.
func NewWatcher(root string, debounce time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{root: root, debounce: debounce, rebuild: rebuild, fsw: fsw}, nil
}

// Run watches until ctx is done. Directories created while watching are
// added to the watch set so new content sections are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	slog.Info("Watching for changes", logfields.Path(w.root))

	events := make(chan struct{}, 1)
	go debounceLoop(ctx, events, w.debounce, func() {
		if err := w.rebuild(ctx); err != nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(ev.Name)
				}
			}
			select {
			case events <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// debounceLoop coalesces bursts on events into single fire calls: the timer
// restarts on every event and fire runs only after a quiet window.
func debounceLoop(ctx context.Context, events <-chan struct{}, window time.Duration, fire func()) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-events:
			if timer == nil {
				timer = time.NewTimer(window)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(window)
			}
		case <-timerC:
			fire()
			timer = nil
			timerC = nil
		}
	}
}
