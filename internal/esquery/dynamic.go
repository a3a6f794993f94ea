package esquery

import (
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

// dynamicBasePath returns the index path sub-element keys are appended to.
func dynamicBasePath(base field.Descriptor) string {
	if base.DynamicField != nil && base.DynamicField.Path != "" {
		base.Path = base.DynamicField.Path
	}
	return base.IndexPath()
}

// compileDynamic runs the steps shared by every dynamic type: require an
// operator, trim the operand, require a value unless the operator needs
// none, then compile the synthesized sub-field through a primitive
// transformer. Dynamic sub-fields are always keyword-backed.
func compileDynamic(base field.Descriptor, key string, t field.Type, distinct bool, op field.Operator, value string) dsl.Object {
	key = strings.TrimSpace(key)
	if key == "" || op == "" {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" && op.RequiresValue() {
		return nil
	}

	path := dynamicBasePath(base) + "." + key
	synthesized := field.Descriptor{
		Path:                     path,
		Label:                    base.Label,
		Type:                     t,
		ParentName:               base.ParentName,
		ParentType:               base.ParentType,
		ParentPath:               base.ParentPath,
		KeywordMultiFieldSupport: true,
		DistinctTerm:             distinct,
	}
	return TransformPrimitive(t, Request{
		Operator: op,
		Value:    value,
		Field:    synthesized,
		Path:     path,
	})
}

// TransformManagedAttribute compiles a managed attribute rule. The element
// kind comes from SelectedType, else from the attribute definition; pick
// lists compile as vocabulary terms.
func TransformManagedAttribute(base field.Descriptor, v *querytree.ManagedAttributeValue) dsl.Object {
	if v == nil || v.SelectedManagedAttribute == nil {
		return nil
	}
	kind := v.ElementKind()
	return compileDynamic(base, v.SelectedManagedAttribute.Key, kind.PrimitiveType(), false,
		v.SelectedOperator, v.SearchValue)
}

// TransformFieldExtension compiles a field extension rule on
// <base>.<extension>.<field>. Extension values are enumerations, so the
// synthesized field is a distinct term.
func TransformFieldExtension(base field.Descriptor, v *querytree.FieldExtensionValue) dsl.Object {
	if v == nil {
		return nil
	}
	ext := strings.TrimSpace(v.SelectedExtension)
	fld := strings.TrimSpace(v.SelectedField)
	if ext == "" || fld == "" {
		return nil
	}
	return compileDynamic(base, ext+"."+fld, field.TypeText, true, v.SelectedOperator, v.SearchValue)
}

// TransformIdentifier compiles an identifier rule on <base>.<identifier key>.
func TransformIdentifier(base field.Descriptor, v *querytree.IdentifierValue) dsl.Object {
	if v == nil || v.SelectedIdentifier == nil {
		return nil
	}
	return compileDynamic(base, v.SelectedIdentifier.Key, field.TypeText, false,
		v.SelectedOperator, v.SearchValue)
}

// TransformClassification compiles a classification rule on <base>.<rank>
// as free text. Relationship placement comes from the base descriptor.
func TransformClassification(base field.Descriptor, v *querytree.ClassificationValue) dsl.Object {
	if v == nil {
		return nil
	}
	return compileDynamic(base, v.SelectedClassificationRank, field.TypeText, false,
		v.SelectedOperator, v.SearchValue)
}

// TransformRelationshipPresence tests the relationship link itself:
// presence, absence, or a link to one specific UUID.
func TransformRelationshipPresence(v *querytree.RelationshipPresenceValue) dsl.Object {
	if v == nil {
		return nil
	}
	rel := strings.TrimSpace(v.SelectedRelationship)
	if rel == "" {
		return nil
	}
	link := field.RelationshipLinkPath(rel)

	switch v.SelectedOperator {
	case field.OpPresence:
		return dsl.Exists(link)
	case field.OpAbsence:
		return dsl.MustNot(dsl.Exists(link))
	case field.OpUUID:
		id := strings.TrimSpace(v.SelectedValue)
		if id == "" {
			return nil
		}
		return dsl.Term(link, id)
	}
	return nil
}
