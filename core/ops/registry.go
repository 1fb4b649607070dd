package ops

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds bot commands keyed by lowercase name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Op
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Op)}
}

// Register adds commands. It stops at the first name that is already taken.
func (r *Registry) Register(ops ...Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range ops {
		name := strings.ToLower(op.Name())
		if _, exists := r.ops[name]; exists {
			return fmt.Errorf("command already registered: /%s", name)
		}
		r.ops[name] = op
	}
	return nil
}

// Get returns the command with the given name, or nil if not found.
func (r *Registry) Get(name string) Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ops[strings.ToLower(name)]
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Op, len(names))
	for i, name := range names {
		result[i] = r.ops[name]
	}
	return result
}
