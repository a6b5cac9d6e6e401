package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicateModel is returned by Register when a name is already taken.
var ErrDuplicateModel = errors.New("model already registered")

// Registry maps model names to factories under an application namespace.
//
// Short names are stored qualified as "{namespace}.model.{name}", which is the
// name services fall back to when they resolve their model by convention.
// Names that already contain a dot are stored as given.
type Registry struct {
	mu        sync.RWMutex
	namespace string
	factories map[string]Factory
}

// NewRegistry creates an empty registry for the given namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		factories: make(map[string]Factory),
	}
}

// Namespace returns the application namespace.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Qualified returns the conventional registry name for a short model name.
func (r *Registry) Qualified(name string) string {
	if r.namespace == "" {
		return "model." + name
	}
	return r.namespace + ".model." + name
}

func (r *Registry) key(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return r.Qualified(name)
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("model name is empty")
	}
	if factory == nil {
		return fmt.Errorf("model %s: factory is nil", name)
	}

	key := r.key(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, key)
	}
	r.factories[key] = factory
	return nil
}

// MustRegister is Register that panics on error. Meant for startup wiring.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under the exact name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// Lazy returns a factory that resolves name at call time. The factory returns
// nil when nothing is registered under name.
func (r *Registry) Lazy(name string) Factory {
	key := r.key(name)
	return func() Model {
		f, ok := r.Lookup(key)
		if !ok {
			return nil
		}
		return f()
	}
}

// Names lists the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
