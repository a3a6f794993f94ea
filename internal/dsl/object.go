package dsl

// Object is one JSON object of the query DSL (a clause, a sub-clause or a
// whole search document).
type Object map[string]any

// Occurrence types of a bool query.
const (
	OccurMust    = "must"
	OccurShould  = "should"
	OccurMustNot = "must_not"
	OccurFilter  = "filter"
)

// MinimumShouldMatch is the bool option that makes at least one should
// clause mandatory.
const MinimumShouldMatch = "minimum_should_match"

// Term builds {term: {field: value}}.
func Term(field string, value any) Object {
	return Object{"term": Object{field: value}}
}

// Terms builds {terms: {field: values}}.
func Terms(field string, values []string) Object {
	return Object{"terms": Object{field: values}}
}

// TermValues builds {terms: {field: values}} for non-string operands.
func TermValues(field string, values []any) Object {
	return Object{"terms": Object{field: values}}
}

// Exists builds {exists: {field: field}}.
func Exists(field string) Object {
	return Object{"exists": Object{"field": field}}
}

// Range builds {range: {field: bounds}}.
// Bounds keys are gt, gte, lt, lte plus optional format.
func Range(field string, bounds Object) Object {
	return Object{"range": Object{field: bounds}}
}

// Prefix builds {prefix: {field: value}}.
func Prefix(field string, value string) Object {
	return Object{"prefix": Object{field: value}}
}

// PrefixInsensitive builds a case-insensitive prefix query.
func PrefixInsensitive(field string, value string) Object {
	return Object{"prefix": Object{field: Object{
		"value":            value,
		"case_insensitive": true,
	}}}
}

// Match builds {match: {field: {query: value}}}.
func Match(field string, value string) Object {
	return Object{"match": Object{field: Object{"query": value}}}
}

// Wildcard builds a case-insensitive wildcard query. The pattern is used
// verbatim; callers escape user input with EscapeWildcard.
func Wildcard(field string, pattern string) Object {
	return Object{"wildcard": Object{field: Object{
		"value":            pattern,
		"case_insensitive": true,
	}}}
}

// Must builds {bool: {must: clauses}}.
func Must(clauses ...Object) Object {
	return boolList(OccurMust, clauses)
}

// Should builds {bool: {should: clauses}}.
func Should(clauses ...Object) Object {
	return boolList(OccurShould, clauses)
}

// MustNot builds {bool: {must_not: clause}}.
func MustNot(clause Object) Object {
	return Object{"bool": Object{OccurMustNot: clause}}
}

// Nested builds {nested: {path: path, query: query}}.
func Nested(path string, query Object) Object {
	return Object{"nested": Object{
		"path":  path,
		"query": query,
	}}
}

func boolList(occur string, clauses []Object) Object {
	list := make([]Object, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			list = append(list, c)
		}
	}
	return Object{"bool": Object{occur: list}}
}

// EscapeWildcard escapes the wildcard metacharacters *, ? and \ in s.
func EscapeWildcard(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '\\':
			out = append(out, '\\', r)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Lookup walks nested objects by key and returns the object at the end of
// the path.
func (o Object) Lookup(keys ...string) (Object, bool) {
	cur := o
	for _, k := range keys {
		next, ok := AsObject(cur[k])
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// AsObject converts v to an Object if it is one (or a plain JSON map).
func AsObject(v any) (Object, bool) {
	switch val := v.(type) {
	case Object:
		return val, true
	case map[string]any:
		return Object(val), true
	default:
		return nil, false
	}
}

// Clauses normalizes a bool occurrence value into a clause list. A bool
// occurrence may hold a single object or a list.
func Clauses(v any) []Object {
	switch val := v.(type) {
	case nil:
		return nil
	case []Object:
		return val
	case []any:
		out := make([]Object, 0, len(val))
		for _, elem := range val {
			if obj, ok := AsObject(elem); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		if obj, ok := AsObject(v); ok {
			return []Object{obj}
		}
		return nil
	}
}

// Clone returns a deep copy of o. Objects, JSON maps and slices are copied;
// scalars are shared.
func Clone(o Object) Object {
	if o == nil {
		return nil
	}
	return cloneValue(o).(Object)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case map[string]any:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case []Object:
		out := make([]Object, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem).(Object)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
