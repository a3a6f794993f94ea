// Package validate checks query tree rules for well-formed operands.
//
// Validation walks the tree the same way the compiler does and collects
// field-scoped errors. It is independent of compilation: an invalid rule
// still compiles (usually to nothing), and the caller decides whether to
// run the query.
package validate

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

// Error is one field-scoped validation failure.
type Error struct {
	FieldName    string `json:"fieldName"`
	ErrorMessage string `json:"errorMessage"`
	ID           string `json:"id,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]", e.ErrorMessage, e.ID)
}

// Func validates one operand. A nil result means valid.
type Func func(fieldName, value string, op field.Operator, p *message.Printer) *Error

// Validator validates trees against one field registry. Safe for
// concurrent use once built.
type Validator struct {
	registry   *field.Registry
	validators map[field.Type]Func
	printer    *message.Printer
	logger     *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLanguage selects the message language.
func WithLanguage(tag language.Tag) Option {
	return func(v *Validator) {
		v.printer = NewPrinter(tag)
	}
}

// WithValidator registers (or replaces) the validator of a primitive type.
func WithValidator(t field.Type, fn Func) Option {
	return func(v *Validator) {
		v.validators[t] = fn
	}
}

// WithLogger sets the logger skipped rules are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a validator with the default per-type validators.
func New(reg *field.Registry, opts ...Option) *Validator {
	v := &Validator{
		registry: reg,
		validators: map[field.Type]Func{
			field.TypeDate:   ValidateDate,
			field.TypeNumber: ValidateNumber,
			field.TypeUUID:   ValidateUUID,
		},
		printer: NewPrinter(language.English),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns every validation error in node, in tree order. An empty
// result means the tree is valid.
func (v *Validator) Validate(node querytree.Node) []Error {
	var errs []Error
	querytree.Walk(node, func(n querytree.Node) bool {
		if r, ok := n.(*querytree.Rule); ok {
			if err := v.validateRule(r); err != nil {
				errs = append(errs, *err)
			}
		}
		return true
	})
	return errs
}

func (v *Validator) validateRule(r *querytree.Rule) *Error {
	if r == nil || !r.HasField() {
		return nil
	}
	d, ok := v.registry.Lookup(r.Field)
	if !ok {
		return nil
	}
	name := d.Label
	if name == "" {
		name = d.Key()
	}

	if !d.Type.IsDynamic() {
		return v.run(d.Type, name, r.Value, r.Operator)
	}

	dyn := r.Dynamic
	if dyn == nil {
		decoded, err := querytree.DecodeDynamic(d.Type, r.Value)
		if err != nil {
			v.logger.Debug("skipping validation: no dynamic sub-state",
				"rule", r.ID,
				"error", err)
			return nil
		}
		dyn = decoded
	}

	switch s := dyn.(type) {
	case *querytree.ManagedAttributeValue:
		if s.SelectedManagedAttribute != nil && s.SelectedManagedAttribute.Name != "" {
			name = s.SelectedManagedAttribute.Name
		}
		return v.run(s.ElementKind().PrimitiveType(), name, s.SearchValue, s.SelectedOperator)
	case *querytree.RelationshipPresenceValue:
		if s.SelectedOperator == field.OpUUID {
			return v.run(field.TypeUUID, name, s.SelectedValue, field.OpEquals)
		}
		return nil
	case *querytree.FieldExtensionValue, *querytree.IdentifierValue, *querytree.ClassificationValue:
		return v.run(field.TypeText, name, dyn.SearchText(), dyn.InnerOperator())
	}
	return nil
}

func (v *Validator) run(t field.Type, name, value string, op field.Operator) *Error {
	fn, ok := v.validators[t]
	if !ok || fn == nil {
		return nil
	}
	return fn(name, value, op, v.printer)
}
