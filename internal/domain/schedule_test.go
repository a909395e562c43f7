package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	testStaffID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

	// 2026-01-04 is a Sunday.
	testSunday = time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
)

func weeklyRule(weekday int, start, end TimeOfDay, effectiveFrom time.Time) WeeklyScheduleRule {
	return WeeklyScheduleRule{
		ID:            uuid.New(),
		StaffID:       testStaffID,
		Weekday:       weekday,
		StartMinute:   start,
		EndMinute:     end,
		Available:     true,
		EffectiveFrom: effectiveFrom,
		Active:        true,
		CreatedAt:     effectiveFrom,
	}
}

func TestResolveWindow_WeeklyRuleBaseCase(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}

	got, err := ResolveWindow(rules, nil, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if got.Unavailable {
		t.Fatalf("unexpected unavailable: %q", got.Reason)
	}
	if got.Window.Start != 540 || got.Window.End != 1020 {
		t.Fatalf("window = %v, want 09:00-17:00", got.Window)
	}
}

func TestResolveWindow_NoRuleForWeekday(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(1, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}

	got, err := ResolveWindow(rules, nil, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if !got.Unavailable {
		t.Fatalf("expected unavailable, got window %v", got.Window)
	}
	if got.Reason != ReasonNoSchedule {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonNoSchedule)
	}
}

func TestResolveWindow_EffectiveWindowBoundaries(t *testing.T) {
	until := testSunday
	rule := weeklyRule(0, 540, 1020, testSunday)
	rule.EffectiveUntil = &until

	t.Run("covers date on both boundaries", func(t *testing.T) {
		got, err := ResolveWindow([]WeeklyScheduleRule{rule}, nil, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if got.Unavailable {
			t.Fatalf("rule effective on boundary date must apply")
		}
	})

	t.Run("expired rule ignored", func(t *testing.T) {
		nextSunday := testSunday.AddDate(0, 0, 7)
		got, err := ResolveWindow([]WeeklyScheduleRule{rule}, nil, nextSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if !got.Unavailable || got.Reason != ReasonNoSchedule {
			t.Fatalf("expected no schedule, got %+v", got)
		}
	})

	t.Run("future rule ignored", func(t *testing.T) {
		future := weeklyRule(0, 540, 1020, testSunday.AddDate(0, 0, 7))
		got, err := ResolveWindow([]WeeklyScheduleRule{future}, nil, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if !got.Unavailable {
			t.Fatalf("rule not yet effective must not apply")
		}
	})
}

// Overlapping effective rules are a data anomaly the resolver tolerates: the
// rule with the latest effective_from wins, created_at breaks ties.
func TestResolveWindow_OverlappingRulesTieBreak(t *testing.T) {
	older := weeklyRule(0, 480, 960, testSunday.AddDate(0, -2, 0))
	newer := weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0))

	t.Run("latest effective_from wins", func(t *testing.T) {
		got, err := ResolveWindow([]WeeklyScheduleRule{older, newer}, nil, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if got.Window.Start != 540 {
			t.Fatalf("window = %v, want the newer rule's 09:00-17:00", got.Window)
		}

		// Order of the input slice must not matter.
		got2, err := ResolveWindow([]WeeklyScheduleRule{newer, older}, nil, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if got2.Window != got.Window {
			t.Fatalf("resolution depends on input order: %v vs %v", got.Window, got2.Window)
		}
	})

	t.Run("same effective_from falls back to created_at", func(t *testing.T) {
		from := testSunday.AddDate(0, -1, 0)
		first := weeklyRule(0, 480, 960, from)
		first.CreatedAt = from
		second := weeklyRule(0, 540, 1020, from)
		second.CreatedAt = from.Add(time.Hour)

		got, err := ResolveWindow([]WeeklyScheduleRule{first, second}, nil, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow error: %v", err)
		}
		if got.Window.Start != 540 {
			t.Fatalf("window = %v, want the most recently created rule", got.Window)
		}
	})
}

func TestResolveWindow_InactiveRuleIgnored(t *testing.T) {
	rule := weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0))
	rule.Active = false

	got, err := ResolveWindow([]WeeklyScheduleRule{rule}, nil, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if !got.Unavailable {
		t.Fatalf("inactive rule must not apply")
	}
}

func TestResolveWindow_DayOffRule(t *testing.T) {
	rule := weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0))
	rule.Available = false

	got, err := ResolveWindow([]WeeklyScheduleRule{rule}, nil, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if !got.Unavailable {
		t.Fatalf("rule flagged not available must yield an unavailable day")
	}
}

func TestResolveWindow_BlockingExceptionWinsOverRule(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}

	for _, kind := range []ExceptionKind{
		ExceptionKindHoliday,
		ExceptionKindSickLeave,
		ExceptionKindVacation,
		ExceptionKindUnavailable,
	} {
		exs := []ScheduleException{{
			ID:      uuid.New(),
			StaffID: testStaffID,
			Date:    testSunday,
			Kind:    kind,
			Active:  true,
		}}

		got, err := ResolveWindow(rules, exs, testSunday)
		if err != nil {
			t.Fatalf("ResolveWindow(%s) error: %v", kind, err)
		}
		if !got.Unavailable {
			t.Fatalf("blocking exception %s must win over the weekly rule", kind)
		}
		if got.Reason != string(kind) {
			t.Fatalf("reason = %q, want %q", got.Reason, kind)
		}
	}
}

func TestResolveWindow_SpecialHoursReplacesRuleWindow(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}
	start := TimeOfDay(600)
	end := TimeOfDay(780)
	exs := []ScheduleException{{
		ID:          uuid.New(),
		StaffID:     testStaffID,
		Date:        testSunday,
		Kind:        ExceptionKindSpecialHours,
		StartMinute: &start,
		EndMinute:   &end,
		Active:      true,
	}}

	got, err := ResolveWindow(rules, exs, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if got.Unavailable {
		t.Fatalf("special hours must not block the day: %q", got.Reason)
	}
	if got.Window.Start != 600 || got.Window.End != 780 {
		t.Fatalf("window = %v, want 10:00-13:00", got.Window)
	}
}

func TestResolveWindow_SpecialHoursWithoutWindowDefersToRule(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}
	exs := []ScheduleException{{
		ID:      uuid.New(),
		StaffID: testStaffID,
		Date:    testSunday,
		Kind:    ExceptionKindSpecialHours,
		Active:  true,
	}}

	got, err := ResolveWindow(rules, exs, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if got.Unavailable || got.Window.Start != 540 {
		t.Fatalf("got %+v, want the weekly rule window", got)
	}
}

func TestResolveWindow_ExceptionForOtherDateIgnored(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}
	exs := []ScheduleException{{
		ID:      uuid.New(),
		StaffID: testStaffID,
		Date:    testSunday.AddDate(0, 0, 1),
		Kind:    ExceptionKindHoliday,
		Active:  true,
	}}

	got, err := ResolveWindow(rules, exs, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if got.Unavailable {
		t.Fatalf("exception for a different date must not apply")
	}
}

func TestResolveWindow_InactiveExceptionIgnored(t *testing.T) {
	rules := []WeeklyScheduleRule{
		weeklyRule(0, 540, 1020, testSunday.AddDate(0, -1, 0)),
	}
	exs := []ScheduleException{{
		ID:      uuid.New(),
		StaffID: testStaffID,
		Date:    testSunday,
		Kind:    ExceptionKindHoliday,
		Active:  false,
	}}

	got, err := ResolveWindow(rules, exs, testSunday)
	if err != nil {
		t.Fatalf("ResolveWindow error: %v", err)
	}
	if got.Unavailable {
		t.Fatalf("inactive exception must not apply")
	}
}

func TestResolveWindow_MalformedRuleInterval(t *testing.T) {
	rule := weeklyRule(0, 1020, 540, testSunday.AddDate(0, -1, 0))

	_, err := ResolveWindow([]WeeklyScheduleRule{rule}, nil, testSunday)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
}

func TestExceptionKindBlocks(t *testing.T) {
	blocking := []ExceptionKind{
		ExceptionKindHoliday, ExceptionKindSickLeave,
		ExceptionKindVacation, ExceptionKindUnavailable,
	}
	for _, k := range blocking {
		if !k.Blocks() {
			t.Errorf("%s.Blocks() = false, want true", k)
		}
	}
	if ExceptionKindSpecialHours.Blocks() {
		t.Errorf("special_hours must not block")
	}
	if ExceptionKind("lunch").Known() {
		t.Errorf("unknown kind reported as known")
	}
}
