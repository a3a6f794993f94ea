package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/querydsl/internal/dsl"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // expectation that failed
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// Expectation names, used as AssertionError.Type.
const (
	AssertErrors      = "errors"
	AssertCompact     = "compact"
	AssertUndefined   = "undefined"
	AssertDSLContains = "dsl_contains"
)

// EvaluateExpectations checks result against expect and returns one message
// per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var failures []string
	add := func(err error) {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	if expect.Errors != nil {
		add(assertErrorIDs(result.ErrorIDs(), expect.Errors))
	}
	if expect.Compact != "" && result.Compact != expect.Compact {
		add(&AssertionError{Type: AssertCompact, Expected: expect.Compact, Actual: orNone(result.Compact)})
	}
	if expect.Undefined && !result.Undefined {
		add(&AssertionError{Type: AssertUndefined, Expected: "no query clause", Actual: "a query clause"})
	}
	if len(expect.DSLContains) > 0 {
		add(assertDSLContains(result.Document, expect.DSLContains))
	}
	return failures
}

func assertErrorIDs(actual, expected []string) error {
	if slices.Equal(actual, expected) {
		return nil
	}
	return &AssertionError{
		Type:     AssertErrors,
		Expected: fmt.Sprintf("%v", expected),
		Actual:   fmt.Sprintf("%v", actual),
	}
}

// assertDSLContains reports whether doc contains subset. Both sides go
// through JSON first so YAML integers and json.Number compare equal.
func assertDSLContains(doc dsl.Object, subset map[string]any) error {
	actual, err := normalizeJSON(doc)
	if err != nil {
		return err
	}
	expected, err := normalizeJSON(subset)
	if err != nil {
		return err
	}
	if containsValue(actual, expected) {
		return nil
	}
	data, _ := dsl.Marshal(doc)
	want, _ := dsl.Marshal(subset)
	return &AssertionError{Type: AssertDSLContains, Expected: string(want), Actual: string(data)}
}

func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	obj, err := dsl.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return map[string]any(obj), nil
}

// containsValue is subset matching: every key of an expected map must be
// present with a matching value, and every element of an expected list
// must match some element of the actual list. Scalars compare exactly.
func containsValue(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !containsValue(av, ev) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return false
		}
		for _, ev := range exp {
			if !slices.ContainsFunc(act, func(av any) bool { return containsValue(av, ev) }) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
