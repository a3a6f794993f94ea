// Package compact maps query trees to and from the compact JSON form used
// in URL query parameters:
//
//	{"c":"a","p":[{"f":"data.attributes.name","o":"equals","v":"abc","t":"text"}]}
//
// The compact form holds one level of rules; sub-groups are not
// representable. Dynamic rules store their inner operator and search value
// in o and v, and the identifier of their selection (managed attribute,
// extension field, identifier type, rank or relationship) in d.
package compact

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

// Row is one compact rule.
type Row struct {
	F string `json:"f"`
	O string `json:"o"`
	V string `json:"v"`
	T string `json:"t"`
	D string `json:"d,omitempty"`
}

// Group is the compact tree.
type Group struct {
	C string `json:"c"`
	P []Row  `json:"p"`
}

// Conjunction codes.
const (
	codeAnd = "a"
	codeOr  = "o"
)

// Serialize encodes tree. It fails when any rule has no field or the tree
// has sub-groups; a partial query cannot be restored faithfully.
func Serialize(tree *querytree.Group) (string, bool) {
	if tree == nil {
		return "", false
	}
	out := Group{C: codeAnd, P: []Row{}}
	if tree.Conjunction == querytree.Or {
		out.C = codeOr
	}

	for _, child := range tree.Children {
		r, ok := child.(*querytree.Rule)
		if !ok {
			return "", false
		}
		if !r.HasField() {
			return "", false
		}
		out.P = append(out.P, rowOf(r))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return "", false
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

func rowOf(r *querytree.Rule) Row {
	row := Row{F: r.Field, O: string(r.Operator), V: r.Value, T: r.ValueType}

	dyn := r.Dynamic
	if dyn == nil && field.Type(r.ValueType).IsDynamic() {
		decoded, err := querytree.DecodeDynamic(field.Type(r.ValueType), r.Value)
		if err != nil {
			slog.Debug("serializing dynamic rule as raw value", "rule", r.ID, "error", err)
			return row
		}
		dyn = decoded
	}
	if dyn == nil {
		return row
	}

	if row.T == "" {
		row.T = string(dyn.Kind())
	}
	row.O = string(dyn.InnerOperator())
	row.V = dyn.SearchText()

	switch v := dyn.(type) {
	case *querytree.ManagedAttributeValue:
		if a := v.SelectedManagedAttribute; a != nil {
			row.D = firstNonEmpty(a.ID, a.Key)
		}
	case *querytree.FieldExtensionValue:
		if v.SelectedExtension != "" || v.SelectedField != "" {
			row.D = v.SelectedExtension + "." + v.SelectedField
		}
	case *querytree.IdentifierValue:
		if id := v.SelectedIdentifier; id != nil {
			row.D = firstNonEmpty(id.ID, id.Key)
		}
	case *querytree.ClassificationValue:
		row.D = v.SelectedClassificationRank
	case *querytree.RelationshipPresenceValue:
		row.D = v.SelectedRelationship
	}
	return row
}

// Deserialize decodes a compact string into a fresh tree with IDs from gen,
// or from a UUIDv7Generator when gen is nil. Empty or malformed input returns nil. Dynamic selections come back with
// only their identifier and an empty selected type; catalog resolution
// fills in the rest.
func Deserialize(s string, gen querytree.IDGenerator) *querytree.Group {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var in Group
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		slog.Debug("ignoring malformed compact query", "error", err)
		return nil
	}
	if in.C == "" && in.P == nil {
		return nil
	}
	if gen == nil {
		gen = querytree.UUIDv7Generator{}
	}

	tree := &querytree.Group{ID: gen.Generate()}
	switch in.C {
	case codeAnd, "":
		tree.Conjunction = querytree.And
	case codeOr:
		tree.Conjunction = querytree.Or
	default:
		slog.Debug("ignoring compact query with unknown conjunction", "c", in.C)
		return nil
	}

	for _, row := range in.P {
		tree.Children = append(tree.Children, ruleOf(row, gen.Generate()))
	}
	return tree
}

func ruleOf(row Row, id string) *querytree.Rule {
	r := &querytree.Rule{
		ID:        id,
		Field:     row.F,
		Operator:  field.Operator(row.O),
		Value:     row.V,
		ValueType: row.T,
	}

	dyn := dynamicOf(row)
	if dyn == nil {
		return r
	}
	r.Operator = field.OpNoOperator
	r.Dynamic = dyn
	if encoded, err := querytree.EncodeDynamic(dyn); err == nil {
		r.Value = encoded
	}
	return r
}

func dynamicOf(row Row) querytree.Dynamic {
	op := field.Operator(row.O)
	switch field.Type(row.T) {
	case field.TypeManagedAttribute:
		return &querytree.ManagedAttributeValue{
			SelectedManagedAttribute: managedAttributeRef(row.D),
			SelectedOperator:         op,
			SearchValue:              row.V,
		}
	case field.TypeFieldExtension:
		ext, fld, _ := strings.Cut(row.D, ".")
		return &querytree.FieldExtensionValue{
			SelectedExtension: ext,
			SelectedField:     fld,
			SelectedOperator:  op,
			SearchValue:       row.V,
		}
	case field.TypeIdentifier:
		var ref *querytree.IdentifierType
		if row.D != "" {
			ref = &querytree.IdentifierType{}
			if isUUID(row.D) {
				ref.ID = row.D
			} else {
				ref.Key = row.D
			}
		}
		return &querytree.IdentifierValue{
			SelectedIdentifier: ref,
			SelectedOperator:   op,
			SearchValue:        row.V,
		}
	case field.TypeClassification:
		return &querytree.ClassificationValue{
			SelectedClassificationRank: row.D,
			SelectedOperator:           op,
			SearchValue:                row.V,
		}
	case field.TypeRelationshipPresence:
		return &querytree.RelationshipPresenceValue{
			SelectedRelationship: row.D,
			SelectedOperator:     op,
			SelectedValue:        row.V,
		}
	}
	return nil
}

// managedAttributeRef rebuilds the attribute reference from d: a UUID is
// the attribute ID, anything else its key.
func managedAttributeRef(d string) *querytree.ManagedAttribute {
	if d == "" {
		return nil
	}
	if isUUID(d) {
		return &querytree.ManagedAttribute{ID: d}
	}
	return &querytree.ManagedAttribute{Key: d}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
