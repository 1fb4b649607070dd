package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter caps how many automatic replies each chat receives within a
// sliding window. A Limiter with max <= 0 never limits.
type Limiter struct {
	max    int
	window time.Duration

	mu        sync.Mutex
	sent      map[int64][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// New creates a limiter allowing max replies per chat per window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		sent:   make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// Allow records a reply for chatID and returns nil, or returns an error if
// the chat has used up its budget for the current window.
func (l *Limiter) Allow(chatID int64) error {
	if l == nil || l.max <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	l.sweepLocked(now, cutoff)

	// Prune replies outside the window.
	fresh := l.sent[chatID][:0]
	for _, t := range l.sent[chatID] {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= l.max {
		l.sent[chatID] = fresh
		retry := fresh[0].Add(l.window).Sub(now)
		return fmt.Errorf("reply limit reached for chat %d, next slot in %s", chatID, retry.Truncate(time.Second))
	}

	l.sent[chatID] = append(fresh, now)
	return nil
}

// sweepLocked forgets chats with no reply inside the window. It runs at
// most once per window.
func (l *Limiter) sweepLocked(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for id, times := range l.sent {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.sent, id)
		}
	}
}

// Reset clears the history for a chat.
func (l *Limiter) Reset(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, chatID)
}
