package lsystem

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps grammar names to grammars. Grammars are registered at
// startup; after Freeze the registry only serves lookups.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{grammars: make(map[string]*Grammar)}
}

func (r *Registry) Register(g *Grammar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, g.Name())
	}
	if _, ok := r.grammars[g.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGrammar, g.Name())
	}
	r.grammars[g.Name()] = g
	return nil
}

// Freeze forbids further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

func (r *Registry) Get(name string) (*Grammar, error) {
	r.mu.RLock()
	g, ok := r.grammars[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGrammar, name)
	}
	return g, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grammars[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.grammars))
	for name := range r.grammars {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
