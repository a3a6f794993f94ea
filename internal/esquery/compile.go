package esquery

import (
	"log/slog"
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

// Compiler compiles query trees against one field registry.
//
// A Compiler is immutable after construction and safe for concurrent use.
type Compiler struct {
	registry *field.Registry
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger dropped rules are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompiler creates a compiler for reg.
func NewCompiler(reg *field.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the compiler resolves fields against.
func (c *Compiler) Registry() *field.Registry {
	return c.registry
}

// Compile converts node to a DSL fragment. A nil result means the node
// contributes no clause.
func (c *Compiler) Compile(node querytree.Node) dsl.Object {
	switch n := node.(type) {
	case *querytree.Group:
		return c.compileGroup(n)
	case *querytree.Rule:
		return c.compileRule(n)
	default:
		return nil
	}
}

// compileGroup drops children that compile to nil. A group with no
// surviving children is nil, never an empty bool.
func (c *Compiler) compileGroup(g *querytree.Group) dsl.Object {
	if g == nil {
		return nil
	}
	var clauses []dsl.Object
	for _, child := range g.Children {
		if frag := c.Compile(child); frag != nil {
			clauses = append(clauses, frag)
		}
	}
	if len(clauses) == 0 {
		return nil
	}
	if g.Conjunction == querytree.Or {
		return dsl.Should(clauses...)
	}
	return dsl.Must(clauses...)
}

func (c *Compiler) compileRule(r *querytree.Rule) dsl.Object {
	if r == nil || !r.HasField() {
		return nil
	}
	d, ok := c.registry.Lookup(r.Field)
	if !ok {
		c.logger.Debug("dropping rule: field not registered",
			"rule", r.ID,
			"field", r.Field)
		return nil
	}

	switch d.Type {
	case field.TypeText, field.TypeNumber, field.TypeDate,
		field.TypeBoolean, field.TypeUUID, field.TypeVocabulary:
		return TransformPrimitive(d.Type, Request{
			Operator: r.Operator,
			Value:    r.Value,
			Field:    d,
		})

	case field.TypeClassification:
		if v, ok := dynamicState[*querytree.ClassificationValue](c, r, d); ok {
			return TransformClassification(d, v)
		}
	case field.TypeManagedAttribute:
		if v, ok := dynamicState[*querytree.ManagedAttributeValue](c, r, d); ok {
			return TransformManagedAttribute(d, v)
		}
	case field.TypeFieldExtension:
		if v, ok := dynamicState[*querytree.FieldExtensionValue](c, r, d); ok {
			return TransformFieldExtension(d, v)
		}
	case field.TypeIdentifier:
		if v, ok := dynamicState[*querytree.IdentifierValue](c, r, d); ok {
			return TransformIdentifier(d, v)
		}
	case field.TypeRelationshipPresence:
		if v, ok := dynamicState[*querytree.RelationshipPresenceValue](c, r, d); ok {
			return TransformRelationshipPresence(v)
		}
	default:
		c.logger.Warn("dropping rule: unsupported field type",
			"rule", r.ID,
			"field", r.Field,
			"type", d.Type)
	}
	return nil
}

// dynamicState returns the rule's sub-state as T, decoding the raw value
// when the rule was built without one. Failures are logged and reported
// as !ok; they never abort compilation.
func dynamicState[T querytree.Dynamic](c *Compiler, r *querytree.Rule, d field.Descriptor) (T, bool) {
	var zero T
	dyn := r.Dynamic
	if dyn == nil {
		if strings.TrimSpace(r.Value) == "" {
			c.logger.Debug("dropping rule: no dynamic selection",
				"rule", r.ID,
				"field", r.Field)
			return zero, false
		}
		decoded, err := querytree.DecodeDynamic(d.Type, r.Value)
		if err != nil {
			c.logger.Warn("dropping rule: malformed dynamic sub-state",
				"rule", r.ID,
				"field", r.Field,
				"error", err)
			return zero, false
		}
		dyn = decoded
	}
	v, ok := dyn.(T)
	if !ok {
		c.logger.Warn("dropping rule: sub-state does not match field type",
			"rule", r.ID,
			"field", r.Field,
			"want", d.Type,
			"got", dyn.Kind())
		return zero, false
	}
	return v, true
}
