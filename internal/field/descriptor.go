package field

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultNestedPath is the nested document path of included relationships.
const DefaultNestedPath = "included"

// Descriptor describes one searchable field and its capabilities.
// Descriptors are immutable once placed in a Registry.
type Descriptor struct {
	// Value overrides the lookup key. Usually empty.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Path  string `json:"path" yaml:"path"`
	Label string `json:"label" yaml:"label"`
	Type  Type   `json:"type" yaml:"type"`

	// Relationship placement. ParentType set means the field lives inside
	// a nested included document.
	ParentName string `json:"parentName,omitempty" yaml:"parentName,omitempty"`
	ParentType string `json:"parentType,omitempty" yaml:"parentType,omitempty"`
	ParentPath string `json:"parentPath,omitempty" yaml:"parentPath,omitempty"`

	KeywordMultiFieldSupport bool `json:"keywordMultiFieldSupport,omitempty" yaml:"keywordMultiFieldSupport,omitempty"`
	KeywordNumericSupport    bool `json:"keywordNumericSupport,omitempty" yaml:"keywordNumericSupport,omitempty"`
	ContainsSupport          bool `json:"containsSupport,omitempty" yaml:"containsSupport,omitempty"`
	EndsWithSupport          bool `json:"endsWithSupport,omitempty" yaml:"endsWithSupport,omitempty"`
	OptimizedPrefix          bool `json:"optimizedPrefix,omitempty" yaml:"optimizedPrefix,omitempty"`
	DistinctTerm             bool `json:"distinctTerm,omitempty" yaml:"distinctTerm,omitempty"`

	DynamicField *DynamicField `json:"dynamicField,omitempty" yaml:"dynamicField,omitempty"`
}

// DynamicField carries the catalog information of a dynamic field: which
// component its sub-elements belong to and where they are listed.
type DynamicField struct {
	Type        Type   `json:"type" yaml:"type"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Path        string `json:"path" yaml:"path"`
	Component   string `json:"component,omitempty" yaml:"component,omitempty"`
	APIEndpoint string `json:"apiEndpoint,omitempty" yaml:"apiEndpoint,omitempty"`
}

// Key returns the registry lookup key of the descriptor.
func (d Descriptor) Key() string {
	if d.Value != "" {
		return d.Value
	}
	if d.ParentName != "" {
		return d.ParentName + "." + d.Path
	}
	return d.Path
}

// IsRelationship reports whether the field lives in a nested relationship
// document.
func (d Descriptor) IsRelationship() bool {
	return d.ParentType != ""
}

// NestedPath returns the nested document path used for wrapping.
func (d Descriptor) NestedPath() string {
	if d.ParentPath != "" {
		return d.ParentPath
	}
	return DefaultNestedPath
}

// IndexPath returns the document path the field is indexed under. For
// relationship fields the nested path is prefixed unless Path already
// carries it.
func (d Descriptor) IndexPath() string {
	if !d.IsRelationship() {
		return d.Path
	}
	prefix := d.NestedPath() + "."
	if strings.HasPrefix(d.Path, prefix) {
		return d.Path
	}
	return prefix + d.Path
}

// RelationshipLink returns the path whose existence means the relationship
// is present, e.g. data.relationships.collection.data.id.
func (d Descriptor) RelationshipLink() string {
	name := d.ParentName
	if name == "" {
		name = d.ParentType
	}
	return RelationshipLinkPath(name)
}

// RelationshipLinkPath returns data.relationships.<name>.data.id.
func RelationshipLinkPath(name string) string {
	return "data.relationships." + name + ".data.id"
}

// Registry is an immutable set of descriptors indexed by Key.
// Safe for concurrent use.
type Registry struct {
	fields []Descriptor
	byKey  map[string]int
}

// NewRegistry indexes fields by key. Duplicate keys and unknown types are
// errors.
func NewRegistry(fields []Descriptor) (*Registry, error) {
	r := &Registry{
		fields: make([]Descriptor, 0, len(fields)),
		byKey:  make(map[string]int, len(fields)),
	}
	for i, d := range fields {
		if d.Path == "" {
			return nil, fmt.Errorf("field[%d]: path is required", i)
		}
		if _, err := ParseType(string(d.Type)); err != nil {
			return nil, fmt.Errorf("field %q: %w", d.Key(), err)
		}
		if d.Type.IsDynamic() && d.Type != TypeClassification && d.DynamicField == nil {
			return nil, fmt.Errorf("field %q: dynamic type %s requires dynamicField", d.Key(), d.Type)
		}
		key := d.Key()
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate field key %q", key)
		}
		r.byKey[key] = len(r.fields)
		r.fields = append(r.fields, cloneDescriptor(d))
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error. For tests and static
// tables only.
func MustRegistry(fields ...Descriptor) *Registry {
	r, err := NewRegistry(fields)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor registered under key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	i, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(r.fields[i]), true
}

// Fields returns all descriptors in registration order.
func (r *Registry) Fields() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, len(r.fields))
	for i, d := range r.fields {
		out[i] = cloneDescriptor(d)
	}
	return out
}

// Keys returns all lookup keys, sorted.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of fields.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

func cloneDescriptor(d Descriptor) Descriptor {
	if d.DynamicField != nil {
		df := *d.DynamicField
		d.DynamicField = &df
	}
	return d
}
