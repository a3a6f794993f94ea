package querytree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/querydsl/internal/field"
)

// Dynamic is the decoded sub-state of a rule on a dynamic field type.
//
// This is a sealed interface - only types in this package implement it.
// Variants:
//   - *ManagedAttributeValue
//   - *FieldExtensionValue
//   - *IdentifierValue
//   - *ClassificationValue
//   - *RelationshipPresenceValue
type Dynamic interface {
	dynamicState()
	clone() Dynamic

	// Kind returns the field type the sub-state belongs to.
	Kind() field.Type

	// InnerOperator returns the operator the user picked inside the
	// sub-state (the rule-level operator is noOperator).
	InnerOperator() field.Operator

	// SearchText returns the user-entered operand.
	SearchText() string
}

// ManagedAttribute identifies one managed attribute definition.
type ManagedAttribute struct {
	ID                    string            `json:"id,omitempty"`
	Key                   string            `json:"key,omitempty"`
	Name                  string            `json:"name,omitempty"`
	VocabularyElementType field.ElementKind `json:"vocabularyElementType,omitempty"`
}

// ManagedAttributeValue selects a managed attribute and compares its value.
// SelectedType overrides the attribute's declared element kind when set.
type ManagedAttributeValue struct {
	SelectedManagedAttribute *ManagedAttribute `json:"selectedManagedAttribute,omitempty"`
	SelectedOperator         field.Operator    `json:"selectedOperator"`
	SelectedType             field.ElementKind `json:"selectedType"`
	SearchValue              string            `json:"searchValue"`
}

func (*ManagedAttributeValue) dynamicState() {}

// Kind returns field.TypeManagedAttribute.
func (*ManagedAttributeValue) Kind() field.Type { return field.TypeManagedAttribute }

// InnerOperator returns the selected operator.
func (v *ManagedAttributeValue) InnerOperator() field.Operator { return v.SelectedOperator }

// SearchText returns the search value.
func (v *ManagedAttributeValue) SearchText() string { return v.SearchValue }

// ElementKind returns the effective kind: SelectedType, else the attribute's
// declared kind.
func (v *ManagedAttributeValue) ElementKind() field.ElementKind {
	if v.SelectedType != "" {
		return v.SelectedType
	}
	if v.SelectedManagedAttribute != nil {
		return v.SelectedManagedAttribute.VocabularyElementType
	}
	return ""
}

func (v *ManagedAttributeValue) clone() Dynamic {
	cp := *v
	if v.SelectedManagedAttribute != nil {
		ma := *v.SelectedManagedAttribute
		cp.SelectedManagedAttribute = &ma
	}
	return &cp
}

// FieldExtensionValue selects one field of a field extension package.
type FieldExtensionValue struct {
	SelectedExtension string         `json:"selectedExtension"`
	SelectedField     string         `json:"selectedField"`
	SelectedOperator  field.Operator `json:"selectedOperator"`
	SearchValue       string         `json:"searchValue"`
}

func (*FieldExtensionValue) dynamicState() {}

// Kind returns field.TypeFieldExtension.
func (*FieldExtensionValue) Kind() field.Type { return field.TypeFieldExtension }

// InnerOperator returns the selected operator.
func (v *FieldExtensionValue) InnerOperator() field.Operator { return v.SelectedOperator }

// SearchText returns the search value.
func (v *FieldExtensionValue) SearchText() string { return v.SearchValue }

func (v *FieldExtensionValue) clone() Dynamic {
	cp := *v
	return &cp
}

// IdentifierType identifies one identifier type (e.g. a specimen number
// scheme).
type IdentifierType struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// IdentifierValue selects an identifier type and compares its value.
type IdentifierValue struct {
	SelectedIdentifier *IdentifierType `json:"selectedIdentifier,omitempty"`
	SelectedOperator   field.Operator  `json:"selectedOperator"`
	SearchValue        string          `json:"searchValue"`
}

func (*IdentifierValue) dynamicState() {}

// Kind returns field.TypeIdentifier.
func (*IdentifierValue) Kind() field.Type { return field.TypeIdentifier }

// InnerOperator returns the selected operator.
func (v *IdentifierValue) InnerOperator() field.Operator { return v.SelectedOperator }

// SearchText returns the search value.
func (v *IdentifierValue) SearchText() string { return v.SearchValue }

func (v *IdentifierValue) clone() Dynamic {
	cp := *v
	if v.SelectedIdentifier != nil {
		id := *v.SelectedIdentifier
		cp.SelectedIdentifier = &id
	}
	return &cp
}

// ClassificationValue selects a classification rank (e.g. "genus").
type ClassificationValue struct {
	SelectedClassificationRank string         `json:"selectedClassificationRank"`
	SelectedOperator           field.Operator `json:"selectedOperator"`
	SearchValue                string         `json:"searchValue"`
}

func (*ClassificationValue) dynamicState() {}

// Kind returns field.TypeClassification.
func (*ClassificationValue) Kind() field.Type { return field.TypeClassification }

// InnerOperator returns the selected operator.
func (v *ClassificationValue) InnerOperator() field.Operator { return v.SelectedOperator }

// SearchText returns the search value.
func (v *ClassificationValue) SearchText() string { return v.SearchValue }

func (v *ClassificationValue) clone() Dynamic {
	cp := *v
	return &cp
}

// RelationshipPresenceValue tests whether a relationship is set, or set to
// a specific UUID.
type RelationshipPresenceValue struct {
	SelectedRelationship string         `json:"selectedRelationship"`
	SelectedOperator     field.Operator `json:"selectedOperator"`
	SelectedValue        string         `json:"selectedValue"`
}

func (*RelationshipPresenceValue) dynamicState() {}

// Kind returns field.TypeRelationshipPresence.
func (*RelationshipPresenceValue) Kind() field.Type { return field.TypeRelationshipPresence }

// InnerOperator returns the selected operator.
func (v *RelationshipPresenceValue) InnerOperator() field.Operator { return v.SelectedOperator }

// SearchText returns the selected value.
func (v *RelationshipPresenceValue) SearchText() string { return v.SelectedValue }

func (v *RelationshipPresenceValue) clone() Dynamic {
	cp := *v
	return &cp
}

// NewDynamic returns an empty sub-state for a dynamic type, or nil when t is
// not dynamic.
func NewDynamic(t field.Type) Dynamic {
	switch t {
	case field.TypeManagedAttribute:
		return &ManagedAttributeValue{}
	case field.TypeFieldExtension:
		return &FieldExtensionValue{}
	case field.TypeIdentifier:
		return &IdentifierValue{}
	case field.TypeClassification:
		return &ClassificationValue{}
	case field.TypeRelationshipPresence:
		return &RelationshipPresenceValue{}
	}
	return nil
}

// DecodeDynamic parses the JSON-encoded sub-state of a dynamic rule.
// Partially filled states decode successfully; callers check the fields
// they need.
func DecodeDynamic(t field.Type, raw string) (Dynamic, error) {
	d := NewDynamic(t)
	if d == nil {
		return nil, fmt.Errorf("field type %q has no dynamic sub-state", t)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%s: empty sub-state", t)
	}
	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return nil, fmt.Errorf("%s: malformed sub-state: %w", t, err)
	}
	return d, nil
}

// EncodeDynamic writes d in the editor's JSON string form.
func EncodeDynamic(d Dynamic) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
