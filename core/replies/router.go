package replies

import "sync/atomic"

// Router answers incoming text from the current keyword table. The table is
// replaced wholesale with Swap and read without locks.
type Router struct {
	current atomic.Pointer[Map]
}

// NewRouter creates a Router serving m. A nil m serves no keywords.
func NewRouter(m *Map) *Router {
	if m == nil {
		m = Empty()
	}
	r := &Router{}
	r.current.Store(m)
	return r
}

// Route returns the reply for text, if any keyword matches.
func (r *Router) Route(text string) (reply, keyword string, ok bool) {
	return Match(r.current.Load(), text)
}

// Current returns the table being served.
func (r *Router) Current() *Map {
	return r.current.Load()
}

// Swap installs m and returns the previous table.
func (r *Router) Swap(m *Map) *Map {
	if m == nil {
		m = Empty()
	}
	return r.current.Swap(m)
}
