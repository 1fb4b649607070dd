package core

import (
	"log/slog"
	"sync"

	"github.com/jdelaire/autoreply/core/replies"
)

// Reloader re-reads the reply file and swaps the router's table.
type Reloader struct {
	store  *replies.Store
	router *replies.Router
	logger *slog.Logger

	mu sync.Mutex
}

// NewReloader creates a reloader for the given store and router.
func NewReloader(store *replies.Store, router *replies.Router, logger *slog.Logger) *Reloader {
	return &Reloader{
		store:  store,
		router: router,
		logger: logger,
	}
}

// Reload reads the reply file and installs the new table. If the file
// cannot be read or parsed the current table stays in place and the error
// is logged and returned.
func (r *Reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, outcome, err := r.store.Read()
	if err != nil {
		r.logger.Error("reload failed, keeping current keywords",
			"path", r.store.Path(), "keywords", r.router.Current().Len(), "error", err)
		return err
	}

	old := r.router.Swap(m)
	r.logger.Info("keywords reloaded",
		"path", r.store.Path(), "outcome", outcome.String(), "keywords", m.Len(), "previous", old.Len())
	return nil
}

// OnFileChange adapts Reload to a file watcher callback.
func (r *Reloader) OnFileChange(_ string) {
	_ = r.Reload()
}
