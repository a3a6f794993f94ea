package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
)

// Resolve returns a copy of tree whose dynamic selections are filled in
// from cat. Selections missing from the catalog are left as they are and
// logged; lookup failures other than ErrNotFound abort.
//
// Key lookups are scoped to the component of the rule's field in reg
// (DynamicField.Component), since keys are only unique per component. A nil
// reg, or a field without a component, looks keys up in every component.
//
// Resolved rules get their Value re-encoded so the editor form of the tree
// stays in step with the typed sub-state.
func Resolve(ctx context.Context, cat Catalog, reg *field.Registry, tree *querytree.Group) (*querytree.Group, error) {
	out := querytree.CloneGroup(tree)
	if out == nil || cat == nil {
		return out, nil
	}

	for _, r := range querytree.Rules(out) {
		dyn := r.Dynamic
		if dyn == nil && field.Type(r.ValueType).IsDynamic() {
			decoded, err := querytree.DecodeDynamic(field.Type(r.ValueType), r.Value)
			if err != nil {
				slog.Debug("skipping undecodable dynamic rule", "rule", r.ID, "error", err)
				continue
			}
			dyn = decoded
		}
		if dyn == nil {
			continue
		}

		changed, err := resolveDynamic(ctx, cat, componentOf(reg, r.Field), dyn)
		if err != nil {
			return nil, fmt.Errorf("resolve rule %s: %w", r.ID, err)
		}
		r.Dynamic = dyn
		if !changed {
			continue
		}
		encoded, err := querytree.EncodeDynamic(dyn)
		if err != nil {
			return nil, fmt.Errorf("resolve rule %s: %w", r.ID, err)
		}
		r.Value = encoded
	}
	return out, nil
}

// componentOf returns the catalog component of the dynamic field key.
func componentOf(reg *field.Registry, key string) string {
	if reg == nil {
		return ""
	}
	d, ok := reg.Lookup(key)
	if !ok || d.DynamicField == nil {
		return ""
	}
	return d.DynamicField.Component
}

func resolveDynamic(ctx context.Context, cat Catalog, component string, dyn querytree.Dynamic) (bool, error) {
	switch v := dyn.(type) {
	case *querytree.ManagedAttributeValue:
		ref := v.SelectedManagedAttribute
		if ref == nil {
			return false, nil
		}
		a, err := cat.ManagedAttribute(ctx, component, firstNonEmpty(ref.ID, ref.Key))
		if err != nil {
			return false, notFoundOK(err, "managed attribute", firstNonEmpty(ref.ID, ref.Key))
		}
		v.SelectedManagedAttribute = &querytree.ManagedAttribute{
			ID:                    a.ID,
			Key:                   a.Key,
			Name:                  a.Name,
			VocabularyElementType: a.ElementKind,
		}
		return true, nil

	case *querytree.IdentifierValue:
		ref := v.SelectedIdentifier
		if ref == nil {
			return false, nil
		}
		t, err := cat.IdentifierType(ctx, component, firstNonEmpty(ref.ID, ref.Key))
		if err != nil {
			return false, notFoundOK(err, "identifier type", firstNonEmpty(ref.ID, ref.Key))
		}
		v.SelectedIdentifier = &querytree.IdentifierType{ID: t.ID, Key: t.Key, Name: t.Name}
		return true, nil

	case *querytree.FieldExtensionValue:
		if v.SelectedExtension == "" || v.SelectedField == "" {
			return false, nil
		}
		// Extension selections are already complete; the lookup only
		// reports stale references.
		_, err := cat.ExtensionField(ctx, v.SelectedExtension, v.SelectedField)
		return false, notFoundOK(err, "extension field", v.SelectedExtension+"."+v.SelectedField)
	}
	return false, nil
}

// notFoundOK swallows ErrNotFound with a debug log.
func notFoundOK(err error, what, ref string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		slog.Debug("catalog entry not found", "kind", what, "ref", ref)
		return nil
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
