package unit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownUnit is returned when a description references an unregistered
// unit type.
var ErrUnknownUnit = errors.New("unknown unit type")

var errDuplicateUnit = errors.New("duplicate unit type")

// Factory builds one Unit instance for a description.
type Factory func(desc Descriptor) (Unit, error)

// Registry maps unit type names to their factories. Names are matched
// case-insensitively.
type Registry struct {
	factories map[string]Factory
	names     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		names:     make(map[string]string),
	}
}

// Register adds a factory for the given unit type.
func (r *Registry) Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("empty unit type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	key := strings.ToLower(name)
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", errDuplicateUnit, name)
	}

	r.factories[key] = factory
	r.names[key] = name

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	err := r.Register(name, factory)
	if err != nil {
		panic("unit registry: " + err.Error())
	}
}

// Lookup returns the factory for the given unit type, or nil.
func (r *Registry) Lookup(name string) Factory {
	return r.factories[strings.ToLower(name)]
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
