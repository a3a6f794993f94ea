package esquery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

// Request is the input of a primitive transformer.
type Request struct {
	Operator field.Operator
	Value    string

	// Field supplies capability flags and relationship placement.
	Field field.Descriptor

	// Path is the index path of the field, without sub-field suffixes.
	// Empty means Field.IndexPath().
	Path string
}

func (r Request) path() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Field.IndexPath()
}

// keywordPath returns the path exact matches run against.
func (r Request) keywordPath() string {
	if r.Field.KeywordMultiFieldSupport {
		return r.path() + ".keyword"
	}
	return r.path()
}

// operand returns the trimmed value, and false when the operator needs a
// value and none was given.
func (r Request) operand() (string, bool) {
	v := strings.TrimSpace(r.Value)
	if v == "" && r.Operator.RequiresValue() {
		return "", false
	}
	return v, true
}

// wrap scopes core to the relationship document when the field lives in
// one. Flat fields are returned unchanged.
func (r Request) wrap(core dsl.Object) dsl.Object {
	if core == nil || !r.Field.IsRelationship() {
		return core
	}
	nested := r.Field.NestedPath()
	return dsl.Nested(nested, dsl.Must(core, dsl.Term(nested+".type", r.Field.ParentType)))
}

// existsQuery matches documents where path has a value.
func existsQuery(r Request, path string) dsl.Object {
	return r.wrap(dsl.Exists(path))
}

// emptyQuery matches documents where path has no value. For relationship
// fields that is either no relationship at all, or a relationship whose
// document lacks the field.
func emptyQuery(r Request, path string) dsl.Object {
	if !r.Field.IsRelationship() {
		return dsl.MustNot(dsl.Exists(path))
	}
	link := r.Field.RelationshipLink()
	return dsl.Should(
		dsl.MustNot(dsl.Exists(link)),
		dsl.Must(
			dsl.Exists(link),
			dsl.MustNot(r.wrap(dsl.Exists(path))),
		),
	)
}

// notEqualsQuery also matches documents missing the field entirely.
func notEqualsQuery(r Request, path string, value any) dsl.Object {
	return dsl.Should(
		dsl.MustNot(r.wrap(dsl.Term(path, value))),
		dsl.MustNot(r.wrap(dsl.Exists(path))),
	)
}

// membershipQuery builds terms (in) or must_not terms (notIn).
func membershipQuery(r Request, path string, values []any) dsl.Object {
	if len(values) == 0 {
		return nil
	}
	clause := r.wrap(dsl.TermValues(path, values))
	if r.Operator == field.OpNotIn {
		return dsl.MustNot(clause)
	}
	return clause
}

// rangeQuery builds a one-sided range from a range operator.
func rangeQuery(r Request, path string, value any) dsl.Object {
	return r.wrap(dsl.Range(path, dsl.Object{r.Operator.RangeKey(): value}))
}

// SplitList splits a comma-separated operand, trimming entries and dropping
// blanks. "a, b, ,c" and "a,b,c" give the same list.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Bounds is the decoded operand of the between operator.
type Bounds struct {
	Low  string
	High string
}

// ParseBounds decodes a {"low": ..., "high": ...} operand. Bounds may be
// strings or numbers; missing bounds are empty. ok is false for malformed
// input or when both bounds are missing.
func ParseBounds(s string) (Bounds, bool) {
	var raw struct {
		Low  json.RawMessage `json:"low"`
		High json.RawMessage `json:"high"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Bounds{}, false
	}
	b := Bounds{Low: boundText(raw.Low), High: boundText(raw.High)}
	return b, b.Low != "" || b.High != ""
}

func boundText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// betweenQuery builds one inclusive range. convert maps each bound to its
// operand; a bound it rejects makes the whole clause nil.
func betweenQuery(r Request, path string, value string, convert func(string) (any, bool)) dsl.Object {
	b, ok := ParseBounds(value)
	if !ok {
		return nil
	}
	bounds := dsl.Object{}
	if b.Low != "" {
		v, ok := convert(b.Low)
		if !ok {
			return nil
		}
		bounds["gte"] = v
	}
	if b.High != "" {
		v, ok := convert(b.High)
		if !ok {
			return nil
		}
		bounds["lte"] = v
	}
	return r.wrap(dsl.Range(path, bounds))
}

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

// ParseNumber returns s as a JSON number when it is one. A leading "+" is
// accepted.
func ParseNumber(s string) (json.Number, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if !jsonNumber.MatchString(s) {
		return "", false
	}
	return json.Number(s), true
}

func asString(s string) (any, bool) { return s, true }

func asNumber(s string) (any, bool) {
	n, ok := ParseNumber(s)
	return n, ok
}

// convertAll converts every entry, failing on the first rejected one.
func convertAll(values []string, convert func(string) (any, bool)) ([]any, bool) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		c, ok := convert(v)
		if !ok {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}
