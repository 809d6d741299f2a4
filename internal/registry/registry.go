package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/tagforge/internal/env"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the capability sets known to a single application instance.
type Registry struct {
	capabilities map[string]*env.CapabilitySet
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{capabilities: make(map[string]*env.CapabilitySet)}
}

// RegisterCapability registers a capability set under its name.
func (r *Registry) RegisterCapability(cs *env.CapabilitySet) {
	if _, exists := r.capabilities[cs.Name]; exists {
		panic(fmt.Sprintf("capability with name '%s' already registered", cs.Name))
	}
	slog.Debug("Registering capability.", "name", cs.Name, "functions", len(cs.Functions), "methods", len(cs.Methods))
	r.capabilities[cs.Name] = cs
}

// Lookup returns the capability set registered under name.
func (r *Registry) Lookup(name string) (*env.CapabilitySet, error) {
	cs, ok := r.capabilities[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return cs, nil
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NotFoundError is returned by Lookup for an unregistered name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("capability %q is not registered", e.Name)
}
