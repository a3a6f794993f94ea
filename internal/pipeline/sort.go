package pipeline

import (
	"fmt"
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

// SortRule orders results by one column.
type SortRule struct {
	// ID is the column accessor.
	ID   string `json:"id" yaml:"id"`
	Desc bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// ParseSortRule parses "accessor" or "accessor:asc|desc".
func ParseSortRule(s string) (SortRule, error) {
	id, dir, hasDir := strings.Cut(strings.TrimSpace(s), ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return SortRule{}, fmt.Errorf("sort rule %q: missing column", s)
	}
	rule := SortRule{ID: id}
	if !hasDir {
		return rule, nil
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "asc":
	case "desc":
		rule.Desc = true
	default:
		return SortRule{}, fmt.Errorf("sort rule %q: direction must be asc or desc", s)
	}
	return rule, nil
}

// ApplySortingRules sets sort, one entry per rule in rule order. Rules are
// resolved against columns by accessor; an accessor with no column sorts
// on the raw path. Keyword columns sort on .keyword and relationship
// columns are scoped to their nested document type. No rules leaves doc
// unchanged.
func ApplySortingRules(doc dsl.Object, rules []SortRule, columns []field.Column) dsl.Object {
	var sort []dsl.Object
	for _, rule := range rules {
		if rule.ID == "" {
			continue
		}
		sort = append(sort, sortEntry(rule, columns))
	}
	if len(sort) == 0 {
		return doc
	}

	out := dsl.Clone(doc)
	if out == nil {
		out = dsl.Object{}
	}
	out["sort"] = sort
	return out
}

func sortEntry(rule SortRule, columns []field.Column) dsl.Object {
	col, ok := field.FindColumn(columns, rule.ID)
	if !ok {
		col = field.Column{Accessor: rule.ID}
	}

	path := col.Accessor
	if col.IsKeyword {
		path += ".keyword"
	}
	order := "asc"
	if rule.Desc {
		order = "desc"
	}

	opts := dsl.Object{"order": order}
	if col.RelationshipType != "" {
		opts["nested_path"] = field.DefaultNestedPath
		opts["nested_filter"] = dsl.Term(field.DefaultNestedPath+".type", col.RelationshipType)
	}
	return dsl.Object{path: opts}
}
