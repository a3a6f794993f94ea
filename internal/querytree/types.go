package querytree

import (
	"strings"

	"github.com/roach88/querydsl/internal/field"
)

// Node is a query tree node: *Group or *Rule.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	treeNode()
	NodeID() string
}

// Conjunction joins the children of a group.
type Conjunction string

const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// Group combines child nodes with a single conjunction. Sub-groups recurse.
type Group struct {
	ID          string
	Conjunction Conjunction
	Children    []Node
}

func (*Group) treeNode() {}

// NodeID returns the group ID.
func (g *Group) NodeID() string { return g.ID }

// Rule is one leaf condition: field, operator and value.
//
// Field is the registry key of the field. An empty Field means the user has
// not picked one yet; such a rule never compiles.
//
// Dynamic carries the decoded sub-state of dynamic field types and is nil
// for primitive types. Value keeps the raw editor value either way.
type Rule struct {
	ID        string
	Field     string
	Operator  field.Operator
	Value     string
	ValueType string
	Dynamic   Dynamic
}

func (*Rule) treeNode() {}

// NodeID returns the rule ID.
func (r *Rule) NodeID() string { return r.ID }

// HasField reports whether a field has been selected.
func (r *Rule) HasField() bool {
	return strings.TrimSpace(r.Field) != ""
}

// Walk visits node and its descendants depth-first, parents before
// children. Returning false from fn skips the children of that node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	if g, ok := node.(*Group); ok {
		for _, child := range g.Children {
			Walk(child, fn)
		}
	}
}

// Rules returns every rule under node in depth-first order.
func Rules(node Node) []*Rule {
	var out []*Rule
	Walk(node, func(n Node) bool {
		if r, ok := n.(*Rule); ok {
			out = append(out, r)
		}
		return true
	})
	return out
}

// Clone returns a deep copy of node.
func Clone(node Node) Node {
	switch n := node.(type) {
	case *Group:
		return CloneGroup(n)
	case *Rule:
		cp := *n
		if n.Dynamic != nil {
			cp.Dynamic = n.Dynamic.clone()
		}
		return &cp
	}
	return nil
}

// CloneGroup returns a deep copy of g.
func CloneGroup(g *Group) *Group {
	if g == nil {
		return nil
	}
	cp := &Group{ID: g.ID, Conjunction: g.Conjunction}
	if g.Children != nil {
		cp.Children = make([]Node, len(g.Children))
		for i, child := range g.Children {
			cp.Children[i] = Clone(child)
		}
	}
	return cp
}

// DefaultTree returns the tree a fresh editor starts with: an AND group
// holding one empty rule.
func DefaultTree(gen IDGenerator) *Group {
	return &Group{
		ID:          gen.Generate(),
		Conjunction: And,
		Children: []Node{
			&Rule{ID: gen.Generate()},
		},
	}
}
