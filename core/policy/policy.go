package policy

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	maxSeenIDs = 10000
	pruneCount = 1000
)

var (
	ErrUnauthorizedChat = errors.New("unauthorized chat")
	ErrStaleMessage     = errors.New("stale message")
	ErrDuplicateUpdate  = errors.New("duplicate update")
)

// Config controls which messages the bot acts on.
type Config struct {
	// AllowedChats restricts the bot to these chat IDs. Empty allows all chats.
	AllowedChats []int64
	// MaxAge drops messages older than this. Zero accepts any age.
	MaxAge time.Duration
}

// Policy filters inbound messages by chat allowlist, age and update_id
// de-duplication.
type Policy struct {
	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	allowed   map[int64]bool
	seen      map[int64]bool
	seenOrder []int64
}

// New creates a Policy from cfg.
func New(cfg Config) *Policy {
	var allowed map[int64]bool
	if len(cfg.AllowedChats) > 0 {
		allowed = make(map[int64]bool, len(cfg.AllowedChats))
		for _, id := range cfg.AllowedChats {
			allowed[id] = true
		}
	}
	return &Policy{
		maxAge:  cfg.MaxAge,
		now:     time.Now,
		allowed: allowed,
		seen:    make(map[int64]bool),
	}
}

// Authorize checks whether a message should be processed.
func (p *Policy) Authorize(chatID int64, updateID int64, timestamp time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.allowed != nil && !p.allowed[chatID] {
		return fmt.Errorf("%w: %d", ErrUnauthorizedChat, chatID)
	}

	if p.maxAge > 0 {
		if age := p.now().Sub(timestamp); age > p.maxAge {
			return fmt.Errorf("%w: %v old", ErrStaleMessage, age.Truncate(time.Second))
		}
	}

	if p.seen[updateID] {
		return fmt.Errorf("%w: %d", ErrDuplicateUpdate, updateID)
	}

	// Prune oldest entries if at capacity.
	if len(p.seen) >= maxSeenIDs {
		for _, id := range p.seenOrder[:pruneCount] {
			delete(p.seen, id)
		}
		p.seenOrder = p.seenOrder[pruneCount:]
	}

	p.seen[updateID] = true
	p.seenOrder = append(p.seenOrder, updateID)

	return nil
}
