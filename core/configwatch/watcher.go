package configwatch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls files and invokes a callback when a file's modification
// time or size changes.
type Watcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries []*watchEntry
}

type watchEntry struct {
	path string
	last fingerprint
	cb   func(path string)
}

type fingerprint struct {
	modTime time.Time
	size    int64
}

func (f fingerprint) missing() bool { return f.modTime.IsZero() }

func (f fingerprint) equal(o fingerprint) bool {
	return f.size == o.size && f.modTime.Equal(o.modTime)
}

// New creates a Watcher that polls at the given interval.
func New(interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		interval: interval,
		logger:   logger,
	}
}

// Watch adds a file to be watched. The file does not need to exist yet;
// its appearance counts as a change. Removal does not.
func (w *Watcher) Watch(path string, cb func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, &watchEntry{
		path: path,
		last: stat(path),
		cb:   cb,
	})
}

// Run polls until the context is cancelled. It blocks, so call it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, e := range w.changed() {
				w.logger.Info("config file changed", "path", e.path)
				e.cb(e.path)
			}
		}
	}
}

// changed updates fingerprints and returns the entries whose file changed.
// Callbacks run outside the lock so they may call Watch.
func (w *Watcher) changed() []*watchEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []*watchEntry
	for _, e := range w.entries {
		current := stat(e.path)

		// Skip if file doesn't exist (may be mid-save) or unchanged.
		if current.missing() || current.equal(e.last) {
			continue
		}

		e.last = current
		out = append(out, e)
	}
	return out
}

// stat returns the file's fingerprint, or the zero value if it can't be read.
func stat(path string) fingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}
	}
	return fingerprint{modTime: info.ModTime(), size: info.Size()}
}
