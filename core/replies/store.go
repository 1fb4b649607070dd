package replies

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrMalformed is returned by Read when the reply file is not a JSON
	// object.
	ErrMalformed = errors.New("malformed reply file")
	// ErrSeedFailed is returned by Read when the reply file was missing and
	// the default file could not be written.
	ErrSeedFailed = errors.New("could not create default reply file")
)

// Outcome describes how a table was obtained.
type Outcome int

const (
	OutcomeLoaded   Outcome = iota // parsed from the existing file
	OutcomeSeeded                  // file was missing, defaults written
	OutcomeFallback                // an error occurred, table is empty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeSeeded:
		return "seeded"
	default:
		return "fallback"
	}
}

// DefaultEntries is written to a missing reply file.
var DefaultEntries = []Entry{
	{Keyword: "hello", Reply: "Hi there!"},
	{Keyword: "help", Reply: "Type /start for instructions."},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store reads keyword tables from a JSON file on disk.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the reply file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the reply file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the table from disk and never fails. Errors are logged and
// produce an empty table so the bot keeps running with no keywords.
func (s *Store) Load() *Map {
	m, outcome, err := s.Read()
	switch {
	case err != nil:
		s.logger.Error("reply file not loaded, continuing with no keywords", "path", s.path, "error", err)
	case outcome == OutcomeSeeded:
		s.logger.Warn("reply file not found, created an example", "path", s.path, "keywords", m.Len())
	default:
		s.logger.Info("reply file loaded", "path", s.path, "keywords", m.Len())
	}
	return m
}

// Read loads the table and reports the outcome explicitly. On error the
// returned table is empty and the outcome is OutcomeFallback.
func (s *Store) Read() (*Map, Outcome, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := s.seed(); err != nil {
				return Empty(), OutcomeFallback, fmt.Errorf("%w: %w", ErrSeedFailed, err)
			}
			return NewMap(DefaultEntries), OutcomeSeeded, nil
		}
		return Empty(), OutcomeFallback, fmt.Errorf("read reply file: %w", err)
	}

	entries, skipped, err := decodeEntries(data)
	if err != nil {
		return Empty(), OutcomeFallback, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for _, kw := range skipped {
		s.logger.Warn("ignoring keyword, reply is not a string", "path", s.path, "keyword", kw)
	}
	return NewMap(entries), OutcomeLoaded, nil
}

func (s *Store) seed() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create reply dir: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := EncodeEntries(&buf, DefaultEntries); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write reply file: %w", err)
	}
	return nil
}

// EncodeEntries writes entries as a 4-space indented JSON object, keeping
// their order and leaving non-ASCII and HTML characters unescaped.
func EncodeEntries(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		if err := writeString(&buf, e.Keyword); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := writeString(&buf, e.Reply); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode %q: %w", s, err)
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// decodeEntries parses a flat JSON object, preserving key order so that
// duplicate keywords resolve to the last occurrence. Keys whose value is not
// a string are returned in skipped.
func decodeEntries(data []byte) (entries []Entry, skipped []string, err error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("keyword %q: %w", key, err)
		}
		reply, ok := v.(string)
		if !ok {
			skipped = append(skipped, key)
			continue
		}
		entries = append(entries, Entry{Keyword: key, Reply: reply})
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("unexpected data after object")
	}
	return entries, skipped, nil
}
