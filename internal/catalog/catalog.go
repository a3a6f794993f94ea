// Package catalog holds the definitions behind dynamic fields: managed
// attributes, field extension packages and identifier types.
//
// A compact query string only carries the identifier of a dynamic selection
// (an attribute ID or key, an "extension.field" pair, an identifier type).
// Resolve looks those identifiers up in a Catalog and restores the rest of
// the selection (name, key, element kind) so that the tree validates and
// compiles as if the user had picked the entry in the editor.
package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/roach88/querydsl/internal/field"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// ManagedAttribute is a user-defined attribute with a declared value kind.
type ManagedAttribute struct {
	ID             string            `json:"id" yaml:"id"`
	Key            string            `json:"key" yaml:"key"`
	Name           string            `json:"name" yaml:"name"`
	Component      string            `json:"component,omitempty" yaml:"component,omitempty"`
	ElementKind    field.ElementKind `json:"vocabularyElementType" yaml:"vocabularyElementType"`
	AcceptedValues []string          `json:"acceptedValues,omitempty" yaml:"acceptedValues,omitempty"`
}

// ExtensionField is one field of a field extension package.
type ExtensionField struct {
	Extension string `json:"extension" yaml:"extension"`
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
}

// IdentifierType is a scheme of external identifiers.
type IdentifierType struct {
	ID        string `json:"id" yaml:"id"`
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
}

// Catalog looks up dynamic-field definitions. ref may be an ID or a key.
// IDs are global and an ID match wins. Keys are only unique within a
// component, so a key match is scoped to component; an empty component
// matches any, taking the first by component then ID.
type Catalog interface {
	ManagedAttribute(ctx context.Context, component, ref string) (ManagedAttribute, error)
	ExtensionField(ctx context.Context, extension, key string) (ExtensionField, error)
	IdentifierType(ctx context.Context, component, ref string) (IdentifierType, error)
}

// Memory is an in-memory Catalog.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	attributes  []ManagedAttribute
	extensions  []ExtensionField
	identifiers []IdentifierType
}

// NewMemory returns a Memory catalog holding the entries of seed.
func NewMemory(seed Seed) *Memory {
	m := &Memory{}
	m.attributes = append(m.attributes, seed.ManagedAttributes...)
	m.extensions = append(m.extensions, seed.ExtensionFields...)
	m.identifiers = append(m.identifiers, seed.IdentifierTypes...)
	return m
}

// AddManagedAttribute adds or replaces an attribute, matched by ID.
func (m *Memory) AddManagedAttribute(a ManagedAttribute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.attributes {
		if m.attributes[i].ID == a.ID {
			m.attributes[i] = a
			return
		}
	}
	m.attributes = append(m.attributes, a)
}

// ManagedAttribute implements Catalog.
func (m *Memory) ManagedAttribute(_ context.Context, component, ref string) (ManagedAttribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := lookup(len(m.attributes), ref, component, func(i int) (string, string, string) {
		a := m.attributes[i]
		return a.ID, a.Key, a.Component
	})
	if i < 0 {
		return ManagedAttribute{}, ErrNotFound
	}
	a := m.attributes[i]
	a.AcceptedValues = append([]string(nil), a.AcceptedValues...)
	return a, nil
}

// ExtensionField implements Catalog.
func (m *Memory) ExtensionField(_ context.Context, extension, key string) (ExtensionField, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.extensions {
		if f.Extension == extension && f.Key == key {
			return f, nil
		}
	}
	return ExtensionField{}, ErrNotFound
}

// IdentifierType implements Catalog.
func (m *Memory) IdentifierType(_ context.Context, component, ref string) (IdentifierType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := lookup(len(m.identifiers), ref, component, func(i int) (string, string, string) {
		t := m.identifiers[i]
		return t.ID, t.Key, t.Component
	})
	if i < 0 {
		return IdentifierType{}, ErrNotFound
	}
	return m.identifiers[i], nil
}

// lookup returns the index of the entry matching ref, or -1. entry reports
// the ID, key and component of entry i.
func lookup(n int, ref, component string, entry func(i int) (id, key, comp string)) int {
	best := -1
	var bestComp, bestID string
	for i := 0; i < n; i++ {
		id, key, comp := entry(i)
		if id == ref && id != "" {
			return i
		}
		if key != ref || (component != "" && comp != component) {
			continue
		}
		if best < 0 || comp < bestComp || (comp == bestComp && id < bestID) {
			best, bestComp, bestID = i, comp, id
		}
	}
	return best
}

// ManagedAttributes returns all attributes sorted by key.
func (m *Memory) ManagedAttributes() []ManagedAttribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]ManagedAttribute(nil), m.attributes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
