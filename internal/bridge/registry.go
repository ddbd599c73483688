package bridge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Handler runs one host command. A nil result means the command has no payload.
type Handler func(ctx context.Context, args Args) (any, error)

// Registry stores host commands by name.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Handler)}
}

// Register adds a command. Names are lowercase snake_case and registered once.
func (r *Registry) Register(name string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %q", ErrCommandExists, name)
	}
	r.items[name] = h
	return nil
}

func (r *Registry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[strings.TrimSpace(name)]
	return h, ok
}

// Names returns registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if (i == 0 || i == len(name)-1) && isSep {
			return false
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
