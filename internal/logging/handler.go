// Package logging provides the process log handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ComponentKey is the attribute that names the logging component. Its value
// is appended to the handler name instead of being printed as key=value.
const ComponentKey = "component"

// Options configures a Handler.
type Options struct {
	Level slog.Leveler
	Name  string
}

// Handler writes one line per record:
//
//	2006-01-02 15:04:05 - name.component - LEVEL - message key=value
type Handler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	name   string
	prefix string // group prefix for attribute keys
	attrs  string // preformatted attributes from WithAttrs
}

// NewHandler creates a new log handler.
func NewHandler(w io.Writer, opts *Options) *Handler {
	if opts == nil {
		opts = &Options{}
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
		name:  opts.Name,
	}
}

// New returns a logger using a Handler at the given level.
func New(w io.Writer, name string, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(w, &Options{Level: level, Name: name}))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	sb.WriteString(" - ")
	sb.WriteString(h.name)
	sb.WriteString(" - ")
	sb.WriteString(r.Level.String())
	sb.WriteString(" - ")
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, h.prefix, a)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == ComponentKey && h.prefix == "" {
			h2.name = joinName(h2.name, a.Value.String())
			continue
		}
		h.appendAttr(&sb, h.prefix, a)
	}
	h2.attrs = sb.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *Handler) appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(sb, prefix, ga)
		}
		return
	}

	v := a.Value.String()
	if strings.ContainsAny(v, " \t\n\"=") || v == "" {
		v = fmt.Sprintf("%q", v)
	}
	sb.WriteString(" ")
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteString("=")
	sb.WriteString(v)
}

func joinName(base, component string) string {
	if base == "" {
		return component
	}
	return base + "." + component
}
