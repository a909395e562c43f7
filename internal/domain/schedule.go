package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WeeklyScheduleRule is a staff member's recurring working window for one
// weekday. Weekday follows time.Weekday numbering: 0=Sunday .. 6=Saturday.
type WeeklyScheduleRule struct {
	bun.BaseModel `bun:"table:weekly_schedule_rules"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	StaffID        uuid.UUID  `bun:"staff_id,notnull,type:uuid"`
	Weekday        int        `bun:"weekday,notnull"`
	StartMinute    TimeOfDay  `bun:"start_minute,notnull"`
	EndMinute      TimeOfDay  `bun:"end_minute,notnull"`
	Available      bool       `bun:"available,notnull"`
	EffectiveFrom  time.Time  `bun:"effective_from,notnull"`
	EffectiveUntil *time.Time `bun:"effective_until"`
	Active         bool       `bun:"active,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull"`
}

func (r *WeeklyScheduleRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

func (r WeeklyScheduleRule) Window() (Interval, error) {
	return NewInterval(r.StartMinute, r.EndMinute)
}

// EffectiveOn reports whether the rule's effective window covers the date.
func (r WeeklyScheduleRule) EffectiveOn(date time.Time) bool {
	day := CivilDate(date)
	if CivilDate(r.EffectiveFrom).After(day) {
		return false
	}
	if r.EffectiveUntil != nil && CivilDate(*r.EffectiveUntil).Before(day) {
		return false
	}
	return true
}

type ExceptionKind string

const (
	ExceptionKindHoliday      ExceptionKind = "holiday"
	ExceptionKindSickLeave    ExceptionKind = "sick_leave"
	ExceptionKindVacation     ExceptionKind = "vacation"
	ExceptionKindUnavailable  ExceptionKind = "unavailable"
	ExceptionKindSpecialHours ExceptionKind = "special_hours"
)

// Blocks reports whether the kind removes the whole day from booking.
func (k ExceptionKind) Blocks() bool {
	switch k {
	case ExceptionKindHoliday, ExceptionKindSickLeave, ExceptionKindVacation, ExceptionKindUnavailable:
		return true
	case ExceptionKindSpecialHours:
		return false
	default:
		return false
	}
}

func (k ExceptionKind) Known() bool {
	switch k {
	case ExceptionKindHoliday, ExceptionKindSickLeave, ExceptionKindVacation,
		ExceptionKindUnavailable, ExceptionKindSpecialHours:
		return true
	default:
		return false
	}
}

// ScheduleException overrides the weekly rule for one calendar date.
// StartMinute/EndMinute are nil for full-day exceptions.
type ScheduleException struct {
	bun.BaseModel `bun:"table:schedule_exceptions"`

	ID          uuid.UUID     `bun:"id,pk,type:uuid"`
	StaffID     uuid.UUID     `bun:"staff_id,notnull,type:uuid"`
	Date        time.Time     `bun:"date,notnull"`
	Kind        ExceptionKind `bun:"kind,notnull"`
	StartMinute *TimeOfDay    `bun:"start_minute"`
	EndMinute   *TimeOfDay    `bun:"end_minute"`
	Active      bool          `bun:"active,notnull"`
	CreatedAt   time.Time     `bun:"created_at,notnull"`
	UpdatedAt   time.Time     `bun:"updated_at,notnull"`
}

func (e *ScheduleException) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

// Window returns the partial-day interval, if the exception carries one.
func (e ScheduleException) Window() (Interval, bool, error) {
	if e.StartMinute == nil || e.EndMinute == nil {
		return Interval{}, false, nil
	}
	iv, err := NewInterval(*e.StartMinute, *e.EndMinute)
	if err != nil {
		return Interval{}, false, err
	}
	return iv, true, nil
}

const ReasonNoSchedule = "no schedule defined"

// DayWindow is the resolved working window for one staff member and date.
// When Unavailable is true, Reason says why and Window is zero.
type DayWindow struct {
	Window      Interval
	Unavailable bool
	Reason      string
}

func unavailableDay(reason string) DayWindow {
	return DayWindow{Unavailable: true, Reason: reason}
}

// CivilDate truncates t to its calendar date in UTC.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveWindow determines the authoritative working window for a date from
// the staff member's weekly rules layered with date-specific exceptions.
//
// Exceptions win over weekly rules: any active blocking exception makes the
// whole day unavailable, and a special-hours exception with a partial-day
// window replaces the weekly window outright. Otherwise the single effective
// weekly rule for the date's weekday is the base case. When the data layer
// holds several simultaneously-effective rules for one weekday, the rule
// with the latest effective_from wins, ties broken by latest created_at.
func ResolveWindow(rules []WeeklyScheduleRule, exceptions []ScheduleException, date time.Time) (DayWindow, error) {
	day := CivilDate(date)

	for _, ex := range exceptions {
		if !ex.Active || !CivilDate(ex.Date).Equal(day) {
			continue
		}
		if ex.Kind.Blocks() {
			return unavailableDay(string(ex.Kind)), nil
		}
	}

	var override *Interval
	for _, ex := range exceptions {
		if !ex.Active || !CivilDate(ex.Date).Equal(day) || ex.Kind != ExceptionKindSpecialHours {
			continue
		}
		window, ok, err := ex.Window()
		if err != nil {
			return DayWindow{}, fmt.Errorf("exception %s: %w", ex.ID, err)
		}
		if ok {
			override = &window
			break
		}
	}
	if override != nil {
		return DayWindow{Window: *override}, nil
	}

	rule, ok := pickEffectiveRule(rules, day)
	if !ok {
		return unavailableDay(ReasonNoSchedule), nil
	}
	if !rule.Available {
		return unavailableDay("day off"), nil
	}

	window, err := rule.Window()
	if err != nil {
		return DayWindow{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	return DayWindow{Window: window}, nil
}

func pickEffectiveRule(rules []WeeklyScheduleRule, day time.Time) (WeeklyScheduleRule, bool) {
	weekday := int(day.Weekday())

	var best WeeklyScheduleRule
	found := false
	for _, r := range rules {
		if !r.Active || r.Weekday != weekday || !r.EffectiveOn(day) {
			continue
		}
		if !found {
			best = r
			found = true
			continue
		}
		bestFrom := CivilDate(best.EffectiveFrom)
		from := CivilDate(r.EffectiveFrom)
		if from.After(bestFrom) || (from.Equal(bestFrom) && r.CreatedAt.After(best.CreatedAt)) {
			best = r
		}
	}
	return best, found
}
