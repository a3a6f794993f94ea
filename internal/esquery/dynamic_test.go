package esquery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

var managedAttributes = field.Descriptor{
	Path: "data.attributes.managedAttributes",
	Type: field.TypeManagedAttribute,
	DynamicField: &field.DynamicField{
		Type:      field.TypeManagedAttribute,
		Path:      "data.attributes.managedAttributes",
		Component: "MATERIAL_SAMPLE",
	},
}

func TestTransformManagedAttribute(t *testing.T) {
	tests := []struct {
		name string
		v    *querytree.ManagedAttributeValue
		want string
	}{
		{
			name: "string kind is keyword text",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "colour", VocabularyElementType: field.KindString},
				SelectedOperator:         field.OpEquals,
				SearchValue:              " red ",
			},
			want: `{"term": {"data.attributes.managedAttributes.colour.keyword": "red"}}`,
		},
		{
			name: "integer kind is numeric",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "height", VocabularyElementType: field.KindInteger},
				SelectedOperator:         field.OpGreaterThan,
				SearchValue:              "10",
			},
			want: `{"range": {"data.attributes.managedAttributes.height": {"gt": 10}}}`,
		},
		{
			name: "selected type overrides declared kind",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "collected", VocabularyElementType: field.KindString},
				SelectedOperator:         field.OpContainsDate,
				SelectedType:             field.KindDate,
				SearchValue:              "2021",
			},
			want: `{"range": {"data.attributes.managedAttributes.collected": {"gte": "2021||/y", "lte": "2021||/y", "format": "yyyy"}}}`,
		},
		{
			name: "pick list is vocabulary",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "stage", VocabularyElementType: field.KindPickList},
				SelectedOperator:         field.OpIn,
				SearchValue:              "adult, larva",
			},
			want: `{"terms": {"data.attributes.managedAttributes.stage.keyword": ["adult", "larva"]}}`,
		},
		{
			name: "bool kind",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "fertile", VocabularyElementType: field.KindBool},
				SelectedOperator:         field.OpEquals,
				SearchValue:              "true",
			},
			want: `{"term": {"data.attributes.managedAttributes.fertile": true}}`,
		},
		{
			name: "empty needs no value",
			v: &querytree.ManagedAttributeValue{
				SelectedManagedAttribute: &querytree.ManagedAttribute{Key: "colour"},
				SelectedOperator:         field.OpEmpty,
			},
			want: `{"bool": {"must_not": {"exists": {"field": "data.attributes.managedAttributes.colour"}}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDSL(t, tt.want, TransformManagedAttribute(managedAttributes, tt.v))
		})
	}
}

func TestTransformManagedAttribute_Incomplete(t *testing.T) {
	attr := &querytree.ManagedAttribute{Key: "colour"}
	cases := []*querytree.ManagedAttributeValue{
		nil,
		{SelectedOperator: field.OpEquals, SearchValue: "red"},
		{SelectedManagedAttribute: attr, SearchValue: "red"},
		{SelectedManagedAttribute: attr, SelectedOperator: field.OpEquals, SearchValue: "   "},
		{SelectedManagedAttribute: &querytree.ManagedAttribute{Key: " "}, SelectedOperator: field.OpEquals, SearchValue: "red"},
	}
	for i, v := range cases {
		assert.Nil(t, TransformManagedAttribute(managedAttributes, v), "case %d", i)
	}
}

func TestTransformFieldExtension_DistinctTerm(t *testing.T) {
	base := field.Descriptor{
		Path:         "data.attributes.extensionValues",
		Type:         field.TypeFieldExtension,
		DynamicField: &field.DynamicField{Type: field.TypeFieldExtension, Path: "data.attributes.extensionValues"},
	}
	v := &querytree.FieldExtensionValue{
		SelectedExtension: "mixs_soil_v5",
		SelectedField:     "experimental_factor",
		SelectedOperator:  field.OpContainsText,
		SearchValue:       "heat",
	}
	// Distinct terms never use the infix sub-field.
	assertDSL(t, `{"wildcard": {"data.attributes.extensionValues.mixs_soil_v5.experimental_factor.keyword": {"value": "*heat*", "case_insensitive": true}}}`,
		TransformFieldExtension(base, v))

	v.SelectedField = ""
	assert.Nil(t, TransformFieldExtension(base, v))
}

func TestTransformIdentifier(t *testing.T) {
	base := field.Descriptor{
		Path:         "data.attributes.identifiers",
		Type:         field.TypeIdentifier,
		DynamicField: &field.DynamicField{Type: field.TypeIdentifier, Path: "data.attributes.identifiers"},
	}
	v := &querytree.IdentifierValue{
		SelectedIdentifier: &querytree.IdentifierType{ID: "id-1", Key: "seqdb_id"},
		SelectedOperator:   field.OpStartsWith,
		SearchValue:        "SEQ",
	}
	assertDSL(t, `{"prefix": {"data.attributes.identifiers.seqdb_id.keyword": {"value": "SEQ", "case_insensitive": true}}}`,
		TransformIdentifier(base, v))

	assert.Nil(t, TransformIdentifier(base, &querytree.IdentifierValue{SelectedOperator: field.OpEquals, SearchValue: "x"}))
}

func TestTransformClassification_InheritsRelationship(t *testing.T) {
	base := field.Descriptor{
		Path:       "attributes.determination.scientificNameDetails.classificationPath",
		Type:       field.TypeClassification,
		ParentName: "organism",
		ParentType: "organism",
	}
	v := &querytree.ClassificationValue{
		SelectedClassificationRank: "genus",
		SelectedOperator:           field.OpEquals,
		SearchValue:                "Abies",
	}
	assertDSL(t, `{"nested": {"path": "included", "query": {"bool": {"must": [
		{"term": {"included.attributes.determination.scientificNameDetails.classificationPath.genus.keyword": "Abies"}},
		{"term": {"included.type": "organism"}}
	]}}}}`, TransformClassification(base, v))
}

func TestTransformRelationshipPresence(t *testing.T) {
	tests := []struct {
		name string
		v    querytree.RelationshipPresenceValue
		want string
	}{
		{
			"presence",
			querytree.RelationshipPresenceValue{SelectedRelationship: "collection", SelectedOperator: field.OpPresence},
			`{"exists": {"field": "data.relationships.collection.data.id"}}`,
		},
		{
			"absence",
			querytree.RelationshipPresenceValue{SelectedRelationship: "collection", SelectedOperator: field.OpAbsence},
			`{"bool": {"must_not": {"exists": {"field": "data.relationships.collection.data.id"}}}}`,
		},
		{
			"uuid",
			querytree.RelationshipPresenceValue{SelectedRelationship: "collection", SelectedOperator: field.OpUUID, SelectedValue: "abc"},
			`{"term": {"data.relationships.collection.data.id": "abc"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.v
			assertDSL(t, tt.want, TransformRelationshipPresence(&v))
		})
	}

	assert.Nil(t, TransformRelationshipPresence(&querytree.RelationshipPresenceValue{SelectedOperator: field.OpPresence}))
	assert.Nil(t, TransformRelationshipPresence(&querytree.RelationshipPresenceValue{SelectedRelationship: "c", SelectedOperator: field.OpUUID}))
	assert.Nil(t, TransformRelationshipPresence(&querytree.RelationshipPresenceValue{SelectedRelationship: "c", SelectedOperator: field.OpEquals}))
	assert.Nil(t, TransformRelationshipPresence(nil))
}
