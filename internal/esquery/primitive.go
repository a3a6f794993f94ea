package esquery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

type converter func(string) (any, bool)

// transformShared handles the operators every primitive type shares.
// exactPath is the path term, terms and range clauses run against.
func transformShared(r Request, v, exactPath string, convert converter) dsl.Object {
	switch r.Operator {
	case field.OpEmpty:
		return emptyQuery(r, r.path())
	case field.OpNotEmpty:
		return existsQuery(r, r.path())
	case field.OpNotEquals:
		c, ok := convert(v)
		if !ok {
			return nil
		}
		return notEqualsQuery(r, exactPath, c)
	case field.OpIn, field.OpNotIn:
		values, ok := convertAll(SplitList(v), convert)
		if !ok {
			return nil
		}
		return membershipQuery(r, exactPath, values)
	case field.OpBetween:
		return betweenQuery(r, exactPath, v, convert)
	case field.OpGreaterThan, field.OpGreaterThanOrEqualTo,
		field.OpLessThan, field.OpLessThanOrEqualTo:
		c, ok := convert(v)
		if !ok {
			return nil
		}
		return rangeQuery(r, exactPath, c)
	default:
		// equals, and any operator the type does not know
		c, ok := convert(v)
		if !ok {
			return nil
		}
		return r.wrap(dsl.Term(exactPath, c))
	}
}

// TransformText compiles a rule on a text field.
func TransformText(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	kw := r.keywordPath()

	switch r.Operator {
	case field.OpStartsWith:
		if r.Field.OptimizedPrefix {
			return r.wrap(dsl.Prefix(r.path()+".prefix", lower(v)))
		}
		return r.wrap(dsl.PrefixInsensitive(kw, v))

	case field.OpEndsWith:
		if r.Field.EndsWithSupport {
			return r.wrap(dsl.Prefix(r.path()+".prefix_reverse", ReverseLower(v)))
		}
		return r.wrap(dsl.Wildcard(kw, "*"+dsl.EscapeWildcard(v)))

	case field.OpContainsText:
		// Distinct terms are enumerations; the analyzed infix sub-field
		// would match fragments of unrelated values.
		if r.Field.ContainsSupport && !r.Field.DistinctTerm {
			return r.wrap(dsl.Match(r.path()+".infix", v))
		}
		return r.wrap(dsl.Wildcard(kw, "*"+dsl.EscapeWildcard(v)+"*"))

	case field.OpWildcard:
		return r.wrap(dsl.Wildcard(kw, "*"+dsl.EscapeWildcard(v)+"*"))

	case field.OpGreaterThan, field.OpGreaterThanOrEqualTo,
		field.OpLessThan, field.OpLessThanOrEqualTo, field.OpBetween:
		if r.Field.KeywordNumericSupport {
			return transformShared(r, v, r.path()+".keyword_numeric", numberOrString)
		}
	}
	return transformShared(r, v, kw, asString)
}

// TransformNumber compiles a rule on a numeric field. Non-numeric operands
// compile to nil.
func TransformNumber(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	return transformShared(r, v, r.path(), asNumber)
}

// TransformBoolean compiles a rule on a boolean field. Operands other than
// true/false compile to nil.
func TransformBoolean(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	return transformShared(r, v, r.path(), asBool)
}

// TransformUUID compiles a rule on a UUID field: exact terms on the raw
// path, never a keyword sub-field.
func TransformUUID(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	return transformShared(r, v, r.path(), asString)
}

// TransformVocabulary compiles a rule on a controlled-vocabulary field.
// Vocabulary values are exact keyword terms.
func TransformVocabulary(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	return transformShared(r, v, r.keywordPath(), asString)
}

// TransformPrimitive dispatches r to the transformer of a primitive type.
// Dynamic types return nil; they go through their own transformers.
func TransformPrimitive(t field.Type, r Request) dsl.Object {
	switch t {
	case field.TypeText:
		return TransformText(r)
	case field.TypeNumber:
		return TransformNumber(r)
	case field.TypeDate:
		return TransformDate(r)
	case field.TypeBoolean:
		return TransformBoolean(r)
	case field.TypeUUID:
		return TransformUUID(r)
	case field.TypeVocabulary:
		return TransformVocabulary(r)
	}
	return nil
}

func asBool(s string) (any, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	}
	return nil, false
}

func numberOrString(s string) (any, bool) {
	if n, ok := ParseNumber(s); ok {
		return n, true
	}
	return s, true
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// ReverseLower lowercases s and reverses it rune by rune, after NFC
// normalization so precomposed characters stay whole. The result is the
// operand of a prefix query on a .prefix_reverse sub-field.
func ReverseLower(s string) string {
	runes := []rune(norm.NFC.String(lower(s)))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
