package field

// Operator names a comparison a rule applies to its field.
type Operator string

const (
	OpEquals               Operator = "equals"
	OpNotEquals            Operator = "notEquals"
	OpEmpty                Operator = "empty"
	OpNotEmpty             Operator = "notEmpty"
	OpIn                   Operator = "in"
	OpNotIn                Operator = "notIn"
	OpBetween              Operator = "between"
	OpGreaterThan          Operator = "greaterThan"
	OpGreaterThanOrEqualTo Operator = "greaterThanOrEqualTo"
	OpLessThan             Operator = "lessThan"
	OpLessThanOrEqualTo    Operator = "lessThanOrEqualTo"
	OpStartsWith           Operator = "startsWith"
	OpEndsWith             Operator = "endsWith"
	OpContainsText         Operator = "containsText"
	OpWildcard             Operator = "wildcard"
	OpContainsDate         Operator = "containsDate"

	// OpNoOperator is the outer operator of dynamic rules; the real one
	// lives in the dynamic sub-state.
	OpNoOperator Operator = "noOperator"

	// Relationship presence.
	OpPresence Operator = "presence"
	OpAbsence  Operator = "absence"
	OpUUID     Operator = "uuid"
)

// RequiresValue reports whether the operator needs a non-blank operand.
func (o Operator) RequiresValue() bool {
	switch o {
	case OpEmpty, OpNotEmpty, OpPresence, OpAbsence, OpNoOperator:
		return false
	}
	return true
}

// IsRange reports whether the operator is a one-sided range comparison.
func (o Operator) IsRange() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqualTo, OpLessThan, OpLessThanOrEqualTo:
		return true
	}
	return false
}

// RangeKey returns the range clause key (gt, gte, lt, lte) of a range
// operator, or "" for anything else.
func (o Operator) RangeKey() string {
	switch o {
	case OpGreaterThan:
		return "gt"
	case OpGreaterThanOrEqualTo:
		return "gte"
	case OpLessThan:
		return "lt"
	case OpLessThanOrEqualTo:
		return "lte"
	}
	return ""
}

var rangeOps = []Operator{OpGreaterThan, OpGreaterThanOrEqualTo, OpLessThan, OpLessThanOrEqualTo}

// OperatorsFor returns the operators legal on d, in menu order.
// Dynamic types return only OpNoOperator; see DynamicOperators.
func OperatorsFor(d Descriptor) []Operator {
	switch d.Type {
	case TypeText:
		ops := []Operator{OpEquals, OpNotEquals, OpIn, OpNotIn, OpStartsWith}
		if d.ContainsSupport {
			ops = append(ops, OpContainsText)
		}
		if d.EndsWithSupport {
			ops = append(ops, OpEndsWith)
		}
		ops = append(ops, OpWildcard)
		if d.KeywordNumericSupport {
			ops = append(ops, rangeOps...)
		}
		return append(ops, OpEmpty, OpNotEmpty)
	case TypeNumber:
		ops := []Operator{OpEquals, OpNotEquals, OpIn, OpNotIn, OpBetween}
		ops = append(ops, rangeOps...)
		return append(ops, OpEmpty, OpNotEmpty)
	case TypeDate:
		ops := []Operator{OpEquals, OpNotEquals, OpContainsDate, OpIn, OpNotIn, OpBetween}
		ops = append(ops, rangeOps...)
		return append(ops, OpEmpty, OpNotEmpty)
	case TypeBoolean:
		return []Operator{OpEquals, OpEmpty, OpNotEmpty}
	case TypeUUID:
		return []Operator{OpEquals, OpNotEquals, OpIn, OpNotIn, OpEmpty, OpNotEmpty}
	case TypeVocabulary:
		return []Operator{OpEquals, OpNotEquals, OpIn, OpNotIn, OpEmpty, OpNotEmpty}
	case TypeClassification, TypeManagedAttribute, TypeFieldExtension,
		TypeIdentifier, TypeRelationshipPresence:
		return []Operator{OpNoOperator}
	}
	return nil
}

// DynamicOperators returns the inner operators legal for a dynamic type
// whose selected sub-element has the given kind.
func DynamicOperators(t Type, kind ElementKind) []Operator {
	switch t {
	case TypeRelationshipPresence:
		return []Operator{OpPresence, OpAbsence, OpUUID}
	case TypeManagedAttribute:
		return OperatorsFor(Descriptor{Type: kind.PrimitiveType(), KeywordMultiFieldSupport: true})
	case TypeFieldExtension, TypeIdentifier, TypeClassification:
		return OperatorsFor(Descriptor{Type: TypeText, KeywordMultiFieldSupport: true})
	}
	return nil
}
