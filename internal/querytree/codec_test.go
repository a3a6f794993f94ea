package querytree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querydsl/internal/field"
)

func TestParse_GroupWithRules(t *testing.T) {
	payload := `{
		"id": "root",
		"type": "group",
		"conjunction": "OR",
		"children": [
			{"id": "r1", "type": "rule", "field": "data.attributes.name", "operator": "equals", "value": "abc", "valueType": "text"},
			{"id": "g2", "type": "group", "conjunction": "and", "children": [
				{"id": "r2", "type": "rule", "field": "data.attributes.count", "operator": "greaterThan", "value": 5, "valueType": "number"}
			]}
		]
	}`

	tree, err := Parse([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "root", tree.ID)
	assert.Equal(t, Or, tree.Conjunction)
	require.Len(t, tree.Children, 2)

	r1 := tree.Children[0].(*Rule)
	assert.Equal(t, "data.attributes.name", r1.Field)
	assert.Equal(t, field.OpEquals, r1.Operator)
	assert.Equal(t, "abc", r1.Value)
	assert.Nil(t, r1.Dynamic)

	g2 := tree.Children[1].(*Group)
	assert.Equal(t, And, g2.Conjunction)
	r2 := g2.Children[0].(*Rule)
	assert.Equal(t, "5", r2.Value, "numeric values keep their JSON text")
}

func TestParse_InfersNodeType(t *testing.T) {
	tree, err := Parse([]byte(`{"conjunction": "AND", "children": [{"field": "f", "operator": "empty"}]}`))
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	_, ok := tree.Children[0].(*Rule)
	assert.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		errMsg  string
	}{
		{"malformed", `{"type": "group",`, "unexpected end"},
		{"root rule", `{"id": "r", "type": "rule", "field": "f"}`, "root node must be a group"},
		{"unknown type", `{"type": "group", "children": [{"type": "widget"}]}`, `$.children[0]: unknown node type "widget"`},
		{"bad conjunction", `{"type": "group", "conjunction": "XOR"}`, "invalid conjunction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.payload))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParse_DecodesDynamicSubState(t *testing.T) {
	payload := `{"type": "group", "children": [{
		"id": "r1",
		"type": "rule",
		"field": "data.attributes.managedAttributes",
		"operator": "noOperator",
		"valueType": "managedAttribute",
		"value": "{\"selectedManagedAttribute\":{\"id\":\"ma-1\",\"key\":\"height\",\"vocabularyElementType\":\"INTEGER\"},\"selectedOperator\":\"greaterThan\",\"selectedType\":\"\",\"searchValue\":\"10\"}"
	}]}`

	tree, err := Parse([]byte(payload))
	require.NoError(t, err)
	r := tree.Children[0].(*Rule)
	require.NotNil(t, r.Dynamic)

	ma, ok := r.Dynamic.(*ManagedAttributeValue)
	require.True(t, ok)
	assert.Equal(t, "height", ma.SelectedManagedAttribute.Key)
	assert.Equal(t, field.OpGreaterThan, ma.InnerOperator())
	assert.Equal(t, field.KindInteger, ma.ElementKind())
	assert.Equal(t, "10", ma.SearchText())
}

func TestParse_DynamicSubStateAsObject(t *testing.T) {
	payload := `{"type": "group", "children": [{
		"type": "rule", "field": "classification", "operator": "noOperator", "valueType": "classification",
		"value": {"selectedClassificationRank": "genus", "selectedOperator": "startsWith", "searchValue": "Abies"}
	}]}`
	tree, err := Parse([]byte(payload))
	require.NoError(t, err)
	cv, ok := tree.Children[0].(*Rule).Dynamic.(*ClassificationValue)
	require.True(t, ok)
	assert.Equal(t, "genus", cv.SelectedClassificationRank)
}

func TestParse_MalformedDynamicFailsSoft(t *testing.T) {
	payload := `{"type": "group", "children": [{
		"type": "rule", "field": "f", "operator": "noOperator", "valueType": "fieldExtension", "value": "{not json"
	}]}`
	tree, err := Parse([]byte(payload))
	require.NoError(t, err)
	r := tree.Children[0].(*Rule)
	assert.Nil(t, r.Dynamic)
	assert.Equal(t, "{not json", r.Value)
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	tree := &Group{
		ID:          "g",
		Conjunction: And,
		Children: []Node{
			&Rule{ID: "r1", Field: "data.attributes.name", Operator: field.OpEquals, Value: "a<b", ValueType: "text"},
			&Rule{
				ID:        "r2",
				Field:     "data.relationships",
				Operator:  field.OpNoOperator,
				ValueType: string(field.TypeRelationshipPresence),
				Dynamic: &RelationshipPresenceValue{
					SelectedRelationship: "collection",
					SelectedOperator:     field.OpPresence,
				},
			},
		},
	}

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var back Group
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tree.Children[0], back.Children[0])

	r2 := back.Children[1].(*Rule)
	assert.Equal(t, tree.Children[1].(*Rule).Dynamic, r2.Dynamic)
}

func TestRuleUnmarshalJSON(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r","field":"f","operator":"in","value":"a,b"}`), &r))
	assert.Equal(t, field.OpIn, r.Operator)
	assert.Equal(t, "a,b", r.Value)
}
