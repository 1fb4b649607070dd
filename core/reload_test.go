package core_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdelaire/autoreply/core"
	"github.com/jdelaire/autoreply/core/replies"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func setup(t *testing.T, content string) (string, *replies.Router, *core.Reloader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := replies.NewStore(path, testLogger())
	router := replies.NewRouter(store.Load())
	return path, router, core.NewReloader(store, router, testLogger())
}

func routeOrEmpty(r *replies.Router, text string) string {
	reply, _, _ := r.Route(text)
	return reply
}

func TestReloadSwapsTable(t *testing.T) {
	path, router, reloader := setup(t, `{"hello": "Hi!", "bye": "Bye!"}`)

	if got := routeOrEmpty(router, "hello"); got != "Hi!" {
		t.Fatalf("before reload: %q", got)
	}

	os.WriteFile(path, []byte(`{"Hello": "Howdy!", "thanks": "You're welcome"}`), 0644)
	if err := reloader.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := routeOrEmpty(router, "hello"); got != "Howdy!" {
		t.Errorf("hello = %q, want Howdy!", got)
	}
	if got := routeOrEmpty(router, "bye"); got != "" {
		t.Errorf("bye = %q, want no reply after removal", got)
	}
	if got := routeOrEmpty(router, "THANKS"); got != "You're welcome" {
		t.Errorf("thanks = %q", got)
	}
}

func TestReloadInvalidKeepsCurrent(t *testing.T) {
	path, router, reloader := setup(t, `{"hello": "Hi!"}`)

	os.WriteFile(path, []byte(`invalid json`), 0644)
	err := reloader.Reload()
	if !errors.Is(err, replies.ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}

	if got := routeOrEmpty(router, "hello"); got != "Hi!" {
		t.Errorf("hello = %q, want the previous table to stay", got)
	}
}

func TestReloadFileDeletedSeedsDefaults(t *testing.T) {
	path, router, reloader := setup(t, `{"bye": "Bye!"}`)

	os.Remove(path)
	if err := reloader.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := routeOrEmpty(router, "hello"); got != "Hi there!" {
		t.Errorf("hello = %q, want default reply", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default file to be recreated: %v", err)
	}
}

func TestStartupWithMalformedFileServesNothing(t *testing.T) {
	_, router, _ := setup(t, `{"hello": `)

	if n := router.Current().Len(); n != 0 {
		t.Errorf("keywords = %d, want 0", n)
	}
}
