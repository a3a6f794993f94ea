// Package pipeline assembles the search request document around a compiled
// query fragment: root wrapping, data-access group filters, pagination,
// sorting and source projection.
//
// Every transform is pure. It returns a new document and never modifies its
// input; a transform with nothing to do returns its input unchanged.
package pipeline

import (
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

// GroupField is the keyword field data-access groups are matched on.
const GroupField = "data.attributes.group.keyword"

// Request holds everything around the query itself.
type Request struct {
	// PageSize 0 means no pagination.
	PageSize   int
	PageOffset int
	Sort       []SortRule
	Columns    []field.Column
	// Groups restricts results to documents owned by these groups.
	Groups []string
}

// Build runs the whole chain on a compiled fragment (nil for an empty
// tree): root query, group filters, pagination, sorting, source filtering.
func Build(fragment dsl.Object, req Request) dsl.Object {
	doc := ApplyRootQuery(fragment)
	doc = ApplyGroupFilters(doc, req.Groups)
	doc = ApplyPagination(doc, req.PageSize, req.PageOffset)
	doc = ApplySortingRules(doc, req.Sort, req.Columns)
	return ApplySourceFiltering(doc, req.Columns)
}

// ApplyRootQuery wraps fragment under "query". A root bool with should
// clauses gets minimum_should_match 1; without it Elasticsearch treats
// should as optional and an OR group would match everything. A nil
// fragment gives an empty document.
func ApplyRootQuery(fragment dsl.Object) dsl.Object {
	if fragment == nil {
		return dsl.Object{}
	}
	query := dsl.Clone(fragment)
	if b, ok := query.Lookup("bool"); ok {
		requireShould(b)
	}
	return dsl.Object{"query": query}
}

// requireShould sets minimum_should_match 1 on a bool with should clauses,
// unless it already has a value.
func requireShould(b dsl.Object) {
	if len(dsl.Clauses(b[dsl.OccurShould])) == 0 {
		return
	}
	if _, set := b[dsl.MinimumShouldMatch]; !set {
		b[dsl.MinimumShouldMatch] = 1
	}
}

// ApplyGroupFilters restricts doc to the given data-access groups: a term
// for one group, terms for several. The filter is appended to the root
// bool's must clauses so existing clauses are kept. Blank group names are
// ignored; no groups leaves doc unchanged.
func ApplyGroupFilters(doc dsl.Object, groups []string) dsl.Object {
	var names []string
	for _, g := range groups {
		if g = strings.TrimSpace(g); g != "" {
			names = append(names, g)
		}
	}
	if len(names) == 0 {
		return doc
	}

	var filter dsl.Object
	if len(names) == 1 {
		filter = dsl.Term(GroupField, names[0])
	} else {
		filter = dsl.Terms(GroupField, names)
	}

	out := dsl.Clone(doc)
	if out == nil {
		out = dsl.Object{}
	}
	query, ok := dsl.AsObject(out["query"])
	if !ok || len(query) == 0 {
		out["query"] = dsl.Must(filter)
		return out
	}

	b, ok := query.Lookup("bool")
	if !ok {
		// Any other root clause becomes the first must clause.
		out["query"] = dsl.Must(query, filter)
		return out
	}

	must := append([]dsl.Object{}, dsl.Clauses(b[dsl.OccurMust])...)
	b[dsl.OccurMust] = append(must, filter)
	// With a must clause present, should clauses stop being required.
	requireShould(b)
	query["bool"] = b
	out["query"] = query
	return out
}

// ApplyPagination sets size and from. A page size of 0 leaves doc
// unchanged.
func ApplyPagination(doc dsl.Object, pageSize, pageOffset int) dsl.Object {
	if pageSize == 0 {
		return doc
	}
	out := dsl.Clone(doc)
	if out == nil {
		out = dsl.Object{}
	}
	out["size"] = pageSize
	out["from"] = pageOffset
	return out
}

// ApplySourceFiltering restricts _source to the document identity plus
// every column's accessors. Included relationship columns also pull in
// included.id and included.type so related documents can be matched up.
// No columns leaves doc unchanged.
func ApplySourceFiltering(doc dsl.Object, columns []field.Column) dsl.Object {
	if len(columns) == 0 {
		return doc
	}

	seen := map[string]bool{}
	var source []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		source = append(source, path)
	}

	add("data.id")
	add("data.type")
	included := false
	for _, col := range columns {
		for _, acc := range append([]string{col.Accessor}, col.AdditionalAccessors...) {
			add(acc)
			if strings.HasPrefix(acc, field.DefaultNestedPath+".") {
				included = true
			}
		}
	}
	if included {
		add(field.DefaultNestedPath + ".id")
		add(field.DefaultNestedPath + ".type")
	}

	out := dsl.Clone(doc)
	if out == nil {
		out = dsl.Object{}
	}
	out["_source"] = source
	return out
}
