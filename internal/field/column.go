package field

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column is one result-table column. Columns drive sorting and source
// filtering of the assembled search document.
//
// A column may be written as a bare accessor string; that shorthand decodes
// to a Column with only Accessor set.
type Column struct {
	Accessor            string   `json:"accessor" yaml:"accessor"`
	Label               string   `json:"label,omitempty" yaml:"label,omitempty"`
	IsKeyword           bool     `json:"isKeyword,omitempty" yaml:"isKeyword,omitempty"`
	RelationshipType    string   `json:"relationshipType,omitempty" yaml:"relationshipType,omitempty"`
	AdditionalAccessors []string `json:"additionalAccessors,omitempty" yaml:"additionalAccessors,omitempty"`
}

// IsRelationship reports whether the column reads from an included document.
func (c Column) IsRelationship() bool {
	return c.RelationshipType != "" || strings.HasPrefix(c.Accessor, DefaultNestedPath+".")
}

// columnFields avoids recursion in the custom decoders.
type columnFields Column

// UnmarshalJSON accepts either a string accessor or a column object.
func (c *Column) UnmarshalJSON(data []byte) error {
	var accessor string
	if err := json.Unmarshal(data, &accessor); err == nil {
		*c = Column{Accessor: accessor}
		return nil
	}
	var f columnFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("column: %w", err)
	}
	*c = Column(f)
	return nil
}

// UnmarshalYAML accepts either a scalar accessor or a column mapping.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = Column{Accessor: node.Value}
		return nil
	}
	var f columnFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("column: %w", err)
	}
	*c = Column(f)
	return nil
}

// FindColumn returns the column with the given accessor.
func FindColumn(columns []Column, accessor string) (Column, bool) {
	for _, c := range columns {
		if c.Accessor == accessor {
			return c, true
		}
	}
	return Column{}, false
}
