// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capability tracks optional dependencies a probe may ask for by name.
//
// Providers are registered as constructors and resolved lazily on first
// Lookup, so asking whether something is available never pays for building it.
package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotRegistered is returned by Lookup when no provider exists for a name.
var ErrNotRegistered = errors.New("capability not registered")

// PanicError records a provider that panicked. The entry keeps returning it
// on every later Lookup.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("provider panicked: %v", e.Value)
}

// Kind reports the error category used in probe outcomes.
func (e *PanicError) Kind() string { return "Panic" }

// Provider builds the value behind a capability.
type Provider func() (any, error)

type entry struct {
	provide Provider

	once  sync.Once
	value any
	err   error
}

// Registry maps capability names to lazily constructed providers.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register installs a provider under name, replacing any previous one.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry{provide: p}
}

// IsAvailable reports whether a provider is registered for name.
// It does not construct the value.
func (r *Registry) IsAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Lookup constructs (once) and returns the value registered under name.
func (r *Registry) Lookup(name string) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	e.once.Do(func() {
		defer func() {
			if p := recover(); p != nil {
				e.value, e.err = nil, &PanicError{Value: p}
			}
		}()
		e.value, e.err = e.provide()
	})
	if e.err != nil {
		return nil, fmt.Errorf("resolving capability %s: %w", name, e.err)
	}
	return e.value, nil
}

// Names returns the registered capability names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupAs resolves name and asserts the value to T.
func LookupAs[T any](r *Registry, name string) (T, error) {
	var zero T
	v, err := r.Lookup(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s has type %T, want %T", name, v, zero)
	}
	return t, nil
}
