// Package field describes the searchable fields of an index: their type,
// capability flags and relationship placement.
//
// A Registry is built once from a registry file and then shared read-only by
// the compiler, the validator and the CLI.
package field

import "fmt"

// Type is the closed set of field types the compiler understands.
type Type string

const (
	TypeText           Type = "text"
	TypeNumber         Type = "number"
	TypeDate           Type = "date"
	TypeBoolean        Type = "boolean"
	TypeUUID           Type = "uuid"
	TypeVocabulary     Type = "vocabulary"
	TypeClassification Type = "classification"

	// Dynamic types. The concrete sub-field is chosen per rule.
	TypeManagedAttribute     Type = "managedAttribute"
	TypeFieldExtension       Type = "fieldExtension"
	TypeIdentifier           Type = "identifier"
	TypeRelationshipPresence Type = "relationshipPresence"
)

var allTypes = []Type{
	TypeText,
	TypeNumber,
	TypeDate,
	TypeBoolean,
	TypeUUID,
	TypeVocabulary,
	TypeClassification,
	TypeManagedAttribute,
	TypeFieldExtension,
	TypeIdentifier,
	TypeRelationshipPresence,
}

// Types returns every known type in declaration order.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseType validates s against the closed type catalog.
func ParseType(s string) (Type, error) {
	for _, t := range allTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// IsDynamic reports whether rules on this type carry dynamic sub-state.
// Classification is included: the rank is chosen per rule.
func (t Type) IsDynamic() bool {
	switch t {
	case TypeClassification, TypeManagedAttribute, TypeFieldExtension,
		TypeIdentifier, TypeRelationshipPresence:
		return true
	}
	return false
}

// ElementKind is the declared value kind of a dynamic sub-element, such as a
// managed attribute's vocabularyElementType.
type ElementKind string

const (
	KindInteger  ElementKind = "INTEGER"
	KindDecimal  ElementKind = "DECIMAL"
	KindDate     ElementKind = "DATE"
	KindString   ElementKind = "STRING"
	KindBool     ElementKind = "BOOL"
	KindPickList ElementKind = "PICK_LIST"
)

// PrimitiveType maps an element kind to the primitive type that compiles
// it. Unknown kinds compile as text.
func (k ElementKind) PrimitiveType() Type {
	switch k {
	case KindInteger, KindDecimal:
		return TypeNumber
	case KindDate:
		return TypeDate
	case KindBool:
		return TypeBoolean
	case KindPickList:
		return TypeVocabulary
	default:
		return TypeText
	}
}
