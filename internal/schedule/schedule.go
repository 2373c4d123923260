// Package schedule parses 5-field cron expressions and computes fire times.
//
// Expressions have the classic layout "minute hour day month day_of_week"
// with minute 0-59, hour 0-23, day 1-31, month 1-12, day_of_week 0-6
// (0 = Sunday). Each field accepts "*", a single integer, a comma-separated
// list of integers and ranges, an inclusive range "a-b" with a <= b, or a
// step "*/n".
//
// When both the day and day_of_week fields are restricted (neither is "*"),
// a time matches if EITHER matches, the traditional Vixie-cron OR
// tie-break. This is a deliberate choice and matches what the
// underlying robfig/cron schedule implements.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// FieldError describes a cron field that failed validation.
type FieldError struct {
	Field  string // minute, hour, day, month or day_of_week
	Value  string // the offending token
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("schedule: invalid %s field %q: %s", e.Field, e.Value, e.Reason)
}

// fieldSpec gives a field's name and numeric bounds, in expression order.
type fieldSpec struct {
	name     string
	min, max int
}

var fieldSpecs = [5]fieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day", 1, 31},
	{"month", 1, 12},
	{"day_of_week", 0, 6},
}

// cronParser accepts exactly the 5 standard fields: no seconds, no
// descriptors.
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Schedule is a parsed, immutable cron expression.
type Schedule struct {
	expr  string
	inner cronlib.Schedule
}

// Parse validates and parses a 5-field cron expression. Validation errors
// name the offending field via *FieldError; a wrong field count is reported
// separately.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("schedule: expression %q must have exactly 5 fields (minute hour day month day_of_week), got %d", expr, len(fields))
	}

	for i, field := range fields {
		if err := validateField(fieldSpecs[i], field); err != nil {
			return nil, err
		}
	}

	inner, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule: parse %q: %w", expr, err)
	}

	return &Schedule{expr: expr, inner: inner}, nil
}

// Next returns the smallest instant strictly later than t that matches the
// expression. It is pure: the same expression and instant always yield the
// same result.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.inner.Next(t)
}

// String returns the original expression.
func (s *Schedule) String() string {
	return s.expr
}

// validateField checks one field token against the accepted grammar and the
// field's numeric bounds.
func validateField(spec fieldSpec, field string) error {
	if field == "*" {
		return nil
	}

	// Step form */n.
	if rest, ok := strings.CutPrefix(field, "*/"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return &FieldError{spec.name, field, "step is not a number"}
		}
		if n < 1 || n > spec.max {
			return &FieldError{spec.name, field, fmt.Sprintf("step must be between 1 and %d", spec.max)}
		}
		return nil
	}

	// Comma-separated list of integers and ranges.
	for _, segment := range strings.Split(field, ",") {
		lo, hi, isRange := strings.Cut(segment, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return &FieldError{spec.name, field, fmt.Sprintf("%q is not a number", lo)}
		}
		if a < spec.min || a > spec.max {
			return &FieldError{spec.name, field, fmt.Sprintf("%d is outside %d-%d", a, spec.min, spec.max)}
		}
		if !isRange {
			continue
		}
		b, err := strconv.Atoi(hi)
		if err != nil {
			return &FieldError{spec.name, field, fmt.Sprintf("%q is not a number", hi)}
		}
		if b < spec.min || b > spec.max {
			return &FieldError{spec.name, field, fmt.Sprintf("%d is outside %d-%d", b, spec.min, spec.max)}
		}
		if a > b {
			return &FieldError{spec.name, field, fmt.Sprintf("range start %d is after end %d", a, b)}
		}
	}

	return nil
}
