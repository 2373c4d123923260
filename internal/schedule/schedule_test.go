package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	exprs := []string{
		"* * * * *",
		"0 9 * * 1-5",
		"*/15 * * * *",
		"30 6 1 * *",
		"0 0 1,15 * *",
		"5 4 * 12 0",
	}
	for _, expr := range exprs {
		if _, err := Parse(expr); err != nil {
			t.Errorf("Parse(%q) failed: %v", expr, err)
		}
	}
}

func TestParse_FieldCount(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "* * * *", "* * * * * *"} {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) should fail on field count", expr)
		}
	}
}

func TestParse_NamesOffendingField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		expr  string
		field string
	}{
		{"99 0 * * *", "minute"},
		{"0 24 * * *", "hour"},
		{"0 0 0 * *", "day"},
		{"0 0 32 * *", "day"},
		{"0 0 * 13 *", "month"},
		{"0 0 * * 7", "day_of_week"},
		{"a 0 * * *", "minute"},
		{"0 0 * * 1-x", "day_of_week"},
	}
	for _, tc := range cases {
		_, err := Parse(tc.expr)
		if err == nil {
			t.Errorf("Parse(%q) should fail", tc.expr)
			continue
		}
		var fieldErr *FieldError
		if !errors.As(err, &fieldErr) {
			t.Errorf("Parse(%q): error %v is not a *FieldError", tc.expr, err)
			continue
		}
		if fieldErr.Field != tc.field {
			t.Errorf("Parse(%q): named field %q, want %q", tc.expr, fieldErr.Field, tc.field)
		}
	}
}

func TestParse_InvertedRange(t *testing.T) {
	t.Parallel()

	_, err := Parse("0 0 * * 5-1")
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected *FieldError, got %v", err)
	}
	if fieldErr.Field != "day_of_week" {
		t.Fatalf("named field %q, want day_of_week", fieldErr.Field)
	}
}

func TestParse_StepBounds(t *testing.T) {
	t.Parallel()

	if _, err := Parse("*/0 * * * *"); err == nil {
		t.Error("step of zero should fail")
	}
	if _, err := Parse("*/60 * * * *"); err == nil {
		t.Error("step above the field maximum should fail")
	}
	if _, err := Parse("*/59 * * * *"); err != nil {
		t.Errorf("step within bounds should parse: %v", err)
	}
}

func TestNext_WeekdayMorning(t *testing.T) {
	t.Parallel()

	sched, err := Parse("0 9 * * 1-5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// Monday 2024-01-08 08:00 fires the same day at 09:00.
	monday8 := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	got := sched.Next(monday8)
	want := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next(Mon 08:00) = %v, want %v", got, want)
	}

	// One second past Monday 09:00 rolls to Tuesday.
	justAfter := time.Date(2024, 1, 8, 9, 0, 1, 0, time.UTC)
	got = sched.Next(justAfter)
	want = time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next(Mon 09:00:01) = %v, want %v", got, want)
	}

	// Friday 09:00 exactly is not strictly later, so Next skips the weekend.
	friday9 := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	got = sched.Next(friday9)
	want = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next(Fri 09:00) = %v, want %v", got, want)
	}
}

func TestNext_StrictlyLaterAndPure(t *testing.T) {
	t.Parallel()

	sched, err := Parse("* * * * *")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	first := sched.Next(at)
	if !first.After(at) {
		t.Fatalf("Next(%v) = %v, not strictly later", at, first)
	}
	if second := sched.Next(at); !second.Equal(first) {
		t.Fatalf("Next is not pure: %v then %v", first, second)
	}
}

func TestNext_DayAndWeekdayOr(t *testing.T) {
	t.Parallel()

	// Day 15 and Friday both restricted: either match fires.
	sched, err := Parse("0 0 15 * 5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// 2024-03-01 is a Friday but not the 15th: matched via day_of_week.
	from := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	got := sched.Next(from)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %v, want Friday %v", got, want)
	}

	// 2024-04-15 is a Monday: matched via day alone.
	from = time.Date(2024, 4, 13, 1, 0, 0, 0, time.UTC)
	got = sched.Next(from)
	want = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next = %v, want day-of-month %v", got, want)
	}
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	sched, err := Parse("0 9 * * 1-5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sched.String() != "0 9 * * 1-5" {
		t.Fatalf("String() = %q", sched.String())
	}
}
