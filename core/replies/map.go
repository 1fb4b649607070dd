package replies

import (
	"sort"
	"strings"
)

// Map is an immutable keyword to reply table. Keys are lowercase.
type Map struct {
	replies  map[string]string
	keywords []string // match priority: longest first, then lexicographic
}

// Entry is a single keyword/reply pair as it appears in the reply file.
type Entry struct {
	Keyword string
	Reply   string
}

// NewMap builds a Map from entries in file order. Keywords are lowercased
// and a later entry overwrites an earlier one with the same lowercased
// keyword. An empty keyword sorts last and answers any non-empty text that
// no other keyword matched.
func NewMap(entries []Entry) *Map {
	m := &Map{replies: make(map[string]string, len(entries))}
	for _, e := range entries {
		m.replies[strings.ToLower(e.Keyword)] = e.Reply
	}

	m.keywords = make([]string, 0, len(m.replies))
	for kw := range m.replies {
		m.keywords = append(m.keywords, kw)
	}
	sort.Slice(m.keywords, func(i, j int) bool {
		a, b := m.keywords[i], m.keywords[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return m
}

// FromStrings builds a Map from a plain Go map. Iteration order of the input
// does not matter unless two keys collide after lowercasing; in that case
// the lexicographically greater original key wins.
func FromStrings(in map[string]string) *Map {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Keyword: k, Reply: in[k]})
	}
	return NewMap(entries)
}

// Empty returns a Map with no keywords.
func Empty() *Map {
	return NewMap(nil)
}

// Len returns the number of keywords.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keywords)
}

// Keywords returns the keywords in match priority order.
func (m *Map) Keywords() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

// Reply returns the reply configured for keyword.
func (m *Map) Reply(keyword string) (string, bool) {
	if m == nil {
		return "", false
	}
	r, ok := m.replies[keyword]
	return r, ok
}

// Strings returns a copy of the table as a plain map.
func (m *Map) Strings() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.replies {
		out[k] = v
	}
	return out
}

// Match returns the reply for the highest priority keyword contained in
// text, compared case-insensitively. Empty text never matches.
func Match(m *Map, text string) (reply, keyword string, ok bool) {
	if text == "" || m.Len() == 0 {
		return "", "", false
	}
	lower := strings.ToLower(text)
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return m.replies[kw], kw, true
		}
	}
	return "", "", false
}
