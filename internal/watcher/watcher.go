// Package watcher polls a source tree and reruns the rewrite when a
// candidate file changes.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/DeusData/joi-to-zod/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

type rootState struct {
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// RunFunc is called with the watched root whenever files changed.
type RunFunc func(ctx context.Context, root string) error

// Watcher polls one root for file changes and triggers runs.
type Watcher struct {
	root  string
	opts  *discover.Options
	runFn RunFunc
	state rootState
}

// New creates a Watcher over root. opts selects the files whose mtime and
// size are compared; RequireImport is ignored so that a file gaining a Joi
// import is noticed.
func New(root string, opts *discover.Options, runFn RunFunc) *Watcher {
	var o discover.Options
	if opts != nil {
		o = *opts
	}
	o.RequireImport = false
	return &Watcher{root: root, opts: &o, runFn: runFn}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling the root
// only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.state.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// poll captures a snapshot of the file tree and compares with the previous.
// First poll: captures baseline without running.
// Subsequent polls: calls runFn if any file changed.
func (w *Watcher) poll(ctx context.Context) {
	state := &w.state
	if _, err := os.Stat(w.root); err != nil {
		slog.Warn("watcher.root_gone", "path", w.root)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := w.captureSnapshot(ctx)
	if err != nil {
		slog.Warn("watcher.snapshot", "path", w.root, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}

	interval := pollInterval(len(snap))

	if state.snapshot == nil {
		slog.Debug("watcher.baseline", "path", w.root, "files", len(snap))
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(state.snapshot, snap) {
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "path", w.root, "files", len(snap))
	if err := w.runFn(ctx, w.root); err != nil {
		slog.Warn("watcher.run", "path", w.root, "err", err)
		// Keep old snapshot so we retry next cycle
		state.nextPoll = time.Now().Add(interval)
		return
	}

	// The run rewrote files itself; take the baseline after it so our own
	// writes do not trigger another run.
	if after, err := w.captureSnapshot(ctx); err == nil {
		snap = after
	}
	state.snapshot = snap
	state.interval = pollInterval(len(snap))
	state.nextPoll = time.Now().Add(state.interval)
}

// captureSnapshot walks the tree with discover.Discover and captures
// mtime+size for each candidate file.
func (w *Watcher) captureSnapshot(ctx context.Context) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, w.root, w.opts)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
