package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/message"

	"github.com/roach88/querydsl/internal/esquery"
	"github.com/roach88/querydsl/internal/field"
)

var (
	fullDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	partialDate = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)
)

// isContainsStyle reports whether op accepts partial dates.
func isContainsStyle(op field.Operator) bool {
	switch op {
	case field.OpContainsDate, field.OpIn, field.OpNotIn:
		return true
	}
	return false
}

// ValidateDate checks a date operand. Blank values are valid. Contains-style
// operators (containsDate, in, notIn) accept YYYY, YYYY-MM and YYYY-MM-DD;
// every other operator needs a full calendar date, and between bounds must
// be ordered.
func ValidateDate(fieldName, value string, op field.Operator, p *message.Printer) *Error {
	value = strings.TrimSpace(value)
	if value == "" || !op.RequiresValue() {
		return nil
	}

	switch {
	case op == field.OpBetween:
		return validateDateBetween(fieldName, value, p)
	case op == field.OpIn || op == field.OpNotIn:
		for _, entry := range esquery.SplitList(value) {
			if !isPartialDate(entry) {
				return newError(p, fieldName, IDPartialDateFormat)
			}
		}
		return nil
	case isContainsStyle(op):
		if !isPartialDate(value) {
			return newError(p, fieldName, IDPartialDateFormat)
		}
		return nil
	default:
		if !isFullDate(value) {
			return newError(p, fieldName, IDDateFormat)
		}
		return nil
	}
}

func validateDateBetween(fieldName, value string, p *message.Printer) *Error {
	b, ok := esquery.ParseBounds(value)
	if !ok {
		return newError(p, fieldName, IDBetweenBounds)
	}
	for _, bound := range []string{b.Low, b.High} {
		if bound != "" && !isFullDate(bound) {
			return newError(p, fieldName, IDDateFormat)
		}
	}
	if b.Low != "" && b.High != "" && b.Low > b.High {
		// Full dates compare correctly as strings.
		return newError(p, fieldName, IDDateRangeOrder)
	}
	return nil
}

func isFullDate(s string) bool {
	if !fullDate.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func isPartialDate(s string) bool {
	if !partialDate.MatchString(s) {
		return false
	}
	layout := "2006"
	switch len(s) {
	case len("2006-01"):
		layout = "2006-01"
	case len(time.DateOnly):
		layout = time.DateOnly
	}
	_, err := time.Parse(layout, s)
	return err == nil
}

// ValidateNumber checks a numeric operand: single values, every in/notIn
// entry, and ordered between bounds.
func ValidateNumber(fieldName, value string, op field.Operator, p *message.Printer) *Error {
	value = strings.TrimSpace(value)
	if value == "" || !op.RequiresValue() {
		return nil
	}

	switch op {
	case field.OpIn, field.OpNotIn:
		for _, entry := range esquery.SplitList(value) {
			if _, ok := esquery.ParseNumber(entry); !ok {
				return newError(p, fieldName, IDNumberFormat, entry)
			}
		}
		return nil
	case field.OpBetween:
		b, ok := esquery.ParseBounds(value)
		if !ok {
			return newError(p, fieldName, IDBetweenBounds)
		}
		var nums []float64
		for _, bound := range []string{b.Low, b.High} {
			if bound == "" {
				continue
			}
			n, ok := esquery.ParseNumber(bound)
			if !ok {
				return newError(p, fieldName, IDNumberFormat, bound)
			}
			f, err := n.Float64()
			if err != nil {
				return newError(p, fieldName, IDNumberFormat, bound)
			}
			nums = append(nums, f)
		}
		if len(nums) == 2 && nums[0] > nums[1] {
			return newError(p, fieldName, IDNumberRangeOrder)
		}
		return nil
	default:
		if _, ok := esquery.ParseNumber(value); !ok {
			return newError(p, fieldName, IDNumberFormat, value)
		}
		return nil
	}
}

// ValidateUUID checks that every operand is a UUID.
func ValidateUUID(fieldName, value string, op field.Operator, p *message.Printer) *Error {
	value = strings.TrimSpace(value)
	if value == "" || !op.RequiresValue() {
		return nil
	}
	entries := []string{value}
	if op == field.OpIn || op == field.OpNotIn {
		entries = esquery.SplitList(value)
	}
	for _, entry := range entries {
		if _, err := uuid.Parse(entry); err != nil {
			return newError(p, fieldName, IDUUIDFormat, entry)
		}
	}
	return nil
}
