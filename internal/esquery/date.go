package esquery

import (
	"regexp"
	"time"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

// DatePrecision is the granularity of a (possibly partial) date operand.
type DatePrecision struct {
	// Unit is the date-math rounding unit: y, M or d.
	Unit string
	// Format is the Elasticsearch date format of the operand.
	Format string
}

var datePrecisions = []struct {
	pattern *regexp.Regexp
	prec    DatePrecision
}{
	{regexp.MustCompile(`^\d{4}$`), DatePrecision{Unit: "y", Format: "yyyy"}},
	{regexp.MustCompile(`^\d{4}-\d{2}$`), DatePrecision{Unit: "M", Format: "yyyy-MM"}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), DatePrecision{Unit: "d", Format: "yyyy-MM-dd"}},
}

// PrecisionOf reports the precision of a YYYY, YYYY-MM or YYYY-MM-DD
// operand.
func PrecisionOf(v string) (DatePrecision, bool) {
	for _, p := range datePrecisions {
		if p.pattern.MatchString(v) {
			return p.prec, true
		}
	}
	return DatePrecision{}, false
}

// rounded returns v with date-math rounding to its own unit, e.g. 2022||/y.
func (p DatePrecision) rounded(v string) string {
	return v + "||/" + p.Unit
}

// TransformDate compiles a rule on a date field.
func TransformDate(r Request) dsl.Object {
	v, ok := r.operand()
	if !ok {
		return nil
	}
	path := r.path()

	switch r.Operator {
	case field.OpContainsDate:
		return r.wrap(containsDate(path, v))

	case field.OpIn, field.OpNotIn:
		// Each entry is a containsDate match, so "2021, 2022-05" means
		// "in 2021 or in May 2022".
		var clauses []dsl.Object
		for _, entry := range SplitList(v) {
			clauses = append(clauses, containsDate(path, entry))
		}
		if len(clauses) == 0 {
			return nil
		}
		clause := r.wrap(dsl.Should(clauses...))
		if r.Operator == field.OpNotIn {
			return dsl.MustNot(clause)
		}
		return clause

	case field.OpGreaterThan, field.OpGreaterThanOrEqualTo,
		field.OpLessThan, field.OpLessThanOrEqualTo:
		bounds := dsl.Object{}
		if p, ok := PrecisionOf(v); ok {
			// gt and lte round up to the end of the unit, gte and lt
			// round down to its start.
			bounds[r.Operator.RangeKey()] = p.rounded(v)
			bounds["format"] = p.Format
		} else {
			bounds[r.Operator.RangeKey()] = v
		}
		return r.wrap(dsl.Range(path, bounds))

	case field.OpBetween:
		return dateBetween(r, path, v)
	}
	return transformShared(r, v, path, asString)
}

// containsDate matches the whole unit a partial date names. Operands that
// are not partial dates fall back to an exact term.
func containsDate(path, v string) dsl.Object {
	p, ok := PrecisionOf(v)
	if !ok {
		return dsl.Term(path, v)
	}
	return dsl.Range(path, dsl.Object{
		"gte":    p.rounded(v),
		"lte":    p.rounded(v),
		"format": p.Format,
	})
}

// dateBetween builds an inclusive day range. Bounds must be full calendar
// dates; partial dates belong to containsDate, so any other bound compiles
// to nil.
func dateBetween(r Request, path, v string) dsl.Object {
	b, ok := ParseBounds(v)
	if !ok {
		return nil
	}
	bounds := dsl.Object{}
	for _, kv := range [][2]string{{"gte", b.Low}, {"lte", b.High}} {
		key, bound := kv[0], kv[1]
		if bound == "" {
			continue
		}
		if !isCalendarDate(bound) {
			return nil
		}
		bounds[key] = dayPrecision.rounded(bound)
	}
	bounds["format"] = dayPrecision.Format
	return r.wrap(dsl.Range(path, bounds))
}

var dayPrecision = DatePrecision{Unit: "d", Format: "yyyy-MM-dd"}

// isCalendarDate reports whether v is a valid YYYY-MM-DD date.
func isCalendarDate(v string) bool {
	if p, ok := PrecisionOf(v); !ok || p != dayPrecision {
		return false
	}
	_, err := time.Parse(time.DateOnly, v)
	return err == nil
}
