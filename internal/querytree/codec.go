package querytree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/querydsl/internal/field"
)

// Node type discriminators in the editor JSON.
const (
	typeGroup = "group"
	typeRule  = "rule"
)

// wireNode is the editor JSON shape of both node variants.
//
//	{"id":"g1","type":"group","conjunction":"AND","children":[...]}
//	{"id":"r1","type":"rule","field":"...","operator":"equals","value":"x","valueType":"text"}
type wireNode struct {
	ID          string            `json:"id,omitempty"`
	Type        string            `json:"type,omitempty"`
	Conjunction string            `json:"conjunction,omitempty"`
	Children    []json.RawMessage `json:"children,omitempty"`
	Field       string            `json:"field,omitempty"`
	Operator    string            `json:"operator,omitempty"`
	Value       json.RawMessage   `json:"value,omitempty"`
	ValueType   string            `json:"valueType,omitempty"`
}

// Parse decodes an editor payload. The root must be a group.
func Parse(data []byte) (*Group, error) {
	node, err := ParseNode(data)
	if err != nil {
		return nil, err
	}
	g, ok := node.(*Group)
	if !ok {
		return nil, fmt.Errorf("root node must be a group, got rule %q", node.NodeID())
	}
	return g, nil
}

// ParseNode decodes one editor node and its descendants.
func ParseNode(data []byte) (Node, error) {
	return parseNode(data, "$")
}

func parseNode(data []byte, at string) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}

	kind := w.Type
	if kind == "" {
		kind = typeRule
		if w.Conjunction != "" || w.Children != nil {
			kind = typeGroup
		}
	}

	switch kind {
	case typeGroup:
		return parseGroup(w, at)
	case typeRule:
		return parseRule(w, at)
	default:
		return nil, fmt.Errorf("%s: unknown node type %q", at, w.Type)
	}
}

func parseGroup(w wireNode, at string) (*Group, error) {
	conj, err := parseConjunction(w.Conjunction)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	g := &Group{ID: w.ID, Conjunction: conj}
	for i, raw := range w.Children {
		child, err := parseNode(raw, fmt.Sprintf("%s.children[%d]", at, i))
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

func parseConjunction(s string) (Conjunction, error) {
	switch strings.ToUpper(s) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	default:
		return "", fmt.Errorf("invalid conjunction %q", s)
	}
}

func parseRule(w wireNode, at string) (*Rule, error) {
	value, err := scalarValue(w.Value)
	if err != nil {
		return nil, fmt.Errorf("%s.value: %w", at, err)
	}
	r := &Rule{
		ID:        w.ID,
		Field:     w.Field,
		Operator:  field.Operator(w.Operator),
		Value:     value,
		ValueType: w.ValueType,
	}

	if field.Type(w.ValueType).IsDynamic() && value != "" {
		dyn, err := DecodeDynamic(field.Type(w.ValueType), value)
		if err != nil {
			// Malformed sub-state is not a payload error: the rule stays
			// in the tree and compiles to nothing.
			slog.Warn("ignoring dynamic sub-state",
				"rule", w.ID,
				"field", w.Field,
				"error", err)
		} else {
			r.Dynamic = dyn
		}
	}
	return r, nil
}

// scalarValue flattens an editor value into a string. Strings are taken as
// is; numbers, booleans and objects keep their JSON text so a dynamic
// sub-state may be posted either as a string or as an object.
func scalarValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if !json.Valid(raw) {
		return "", fmt.Errorf("invalid JSON value")
	}
	return string(raw), nil
}

// UnmarshalJSON decodes an editor group.
func (g *Group) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

// MarshalJSON encodes the group in editor form.
func (g *Group) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, 0, len(g.Children))
	for i, child := range g.Children {
		data, err := json.Marshal(child)
		if err != nil {
			return nil, fmt.Errorf("children[%d]: %w", i, err)
		}
		children = append(children, data)
	}
	return marshalWire(wireNode{
		ID:          g.ID,
		Type:        typeGroup,
		Conjunction: string(g.Conjunction),
		Children:    children,
	})
}

// UnmarshalJSON decodes an editor rule.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := parseRule(w, "$")
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// MarshalJSON encodes the rule in editor form. A decoded dynamic sub-state
// is re-encoded into the value string.
func (r *Rule) MarshalJSON() ([]byte, error) {
	value := r.Value
	if r.Dynamic != nil {
		encoded, err := EncodeDynamic(r.Dynamic)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		value = encoded
	}
	w := wireNode{
		ID:        r.ID,
		Type:      typeRule,
		Field:     r.Field,
		Operator:  string(r.Operator),
		ValueType: r.ValueType,
	}
	if value != "" {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		w.Value = data
	}
	return marshalWire(w)
}

func marshalWire(w wireNode) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
