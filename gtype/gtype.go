// Package gtype implements the native type system consulted by the proxy
// bridge: type identifiers with ancestor chains, fundamental roots, and a
// repository of per-type metadata tables ("typetables") that may carry
// override functions for reference counting and attribute access.
//
// A Registry is an isolated universe of types. Nothing in this package is
// process-global; create one Registry per native system under test or per
// embedding.
package gtype

import (
	"fmt"
	"sort"
	"sync"
)

// Type identifies a native type. The zero value is Invalid and never names a
// registered type.
type Type uint64

// Invalid is the null type identifier.
const Invalid Type = 0

// IsValid reports whether t names a registered type (it does not check the
// registry; it only rejects the null identifier).
func (t Type) IsValid() bool { return t != Invalid }

type typeInfo struct {
	name        string
	parent      Type
	fundamental Type
}

// Registry holds a type hierarchy and its typetables.
type Registry struct {
	mu     sync.RWMutex
	types  map[Type]*typeInfo
	byName map[string]Type
	tables map[Type]*Typetable
	next   Type
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[Type]*typeInfo),
		byName: make(map[string]Type),
		tables: make(map[Type]*Typetable),
		next:   1,
	}
}

// RegisterFundamental registers a new root type with no parent. The type is
// its own fundamental root.
func (r *Registry) RegisterFundamental(name string) (Type, error) {
	return r.register(name, Invalid)
}

// Register registers a new type derived from parent.
func (r *Registry) Register(name string, parent Type) (Type, error) {
	if parent == Invalid {
		return Invalid, fmt.Errorf("gtype: type %q needs a parent; use RegisterFundamental for roots", name)
	}
	return r.register(name, parent)
}

func (r *Registry) register(name string, parent Type) (Type, error) {
	if name == "" {
		return Invalid, fmt.Errorf("gtype: empty type name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return Invalid, fmt.Errorf("gtype: type %q already registered", name)
	}
	fundamental := Invalid
	if parent != Invalid {
		pi, ok := r.types[parent]
		if !ok {
			return Invalid, fmt.Errorf("gtype: parent of %q not registered", name)
		}
		fundamental = pi.fundamental
	}
	t := r.next
	r.next++
	if fundamental == Invalid {
		fundamental = t
	}
	r.types[t] = &typeInfo{name: name, parent: parent, fundamental: fundamental}
	r.byName[name] = t
	return t, nil
}

// Lookup returns the type registered under name, or Invalid.
func (r *Registry) Lookup(name string) Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Name returns the registered name of t, or "" for unknown types.
func (r *Registry) Name(t Type) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ti, ok := r.types[t]; ok {
		return ti.name
	}
	return ""
}

// Names returns the names of all registered types in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parent returns the direct ancestor of t, or Invalid for roots and unknown
// types.
func (r *Registry) Parent(t Type) Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ti, ok := r.types[t]; ok {
		return ti.parent
	}
	return Invalid
}

// Fundamental returns the root of t's ancestor chain, or Invalid.
func (r *Registry) Fundamental(t Type) Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ti, ok := r.types[t]; ok {
		return ti.fundamental
	}
	return Invalid
}

// IsA reports whether t is ancestor or derives from it.
func (r *Registry) IsA(t, ancestor Type) bool {
	if t == Invalid || ancestor == Invalid {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for t != Invalid {
		if t == ancestor {
			return true
		}
		ti, ok := r.types[t]
		if !ok {
			return false
		}
		t = ti.parent
	}
	return false
}
