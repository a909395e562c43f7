package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateSlots_ExactPartition(t *testing.T) {
	window := mustInterval(t, 540, 600) // 09:00-10:00

	slots := GenerateSlots(window, 15)
	if len(slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4", len(slots))
	}
	want := []Interval{
		{Start: 540, End: 555},
		{Start: 555, End: 570},
		{Start: 570, End: 585},
		{Start: 585, End: 600},
	}
	for i, s := range slots {
		if s != want[i] {
			t.Fatalf("slots[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func TestGenerateSlots_DropsRemainder(t *testing.T) {
	window := mustInterval(t, 540, 610) // 09:00-10:10

	slots := GenerateSlots(window, 15)
	if len(slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4 (remainder dropped)", len(slots))
	}
	last := slots[len(slots)-1]
	if last.End > window.End {
		t.Fatalf("last slot end %v exceeds window end %v", last.End, window.End)
	}
}

func TestGenerateSlots_CountIsFloorOfWindowOverDuration(t *testing.T) {
	tests := []struct {
		window   Interval
		duration int
		want     int
	}{
		{window: Interval{Start: 540, End: 1020}, duration: 30, want: 16},
		{window: Interval{Start: 540, End: 1020}, duration: 45, want: 10},
		{window: Interval{Start: 540, End: 555}, duration: 20, want: 0},
		{window: Interval{Start: 540, End: 1020}, duration: 480, want: 1},
	}
	for _, tt := range tests {
		got := GenerateSlots(tt.window, tt.duration)
		if len(got) != tt.want {
			t.Errorf("GenerateSlots(%v, %d) produced %d slots, want %d",
				tt.window, tt.duration, len(got), tt.want)
		}
		for _, s := range got {
			if s.Minutes() != tt.duration {
				t.Errorf("slot %v is %d minutes, want %d", s, s.Minutes(), tt.duration)
			}
		}
	}
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	window := mustInterval(t, 540, 1020)
	if got := GenerateSlots(window, 0); got != nil {
		t.Fatalf("duration 0 produced %d slots", len(got))
	}
	if got := GenerateSlots(window, -15); got != nil {
		t.Fatalf("negative duration produced %d slots", len(got))
	}
}

func activeBooking(start, end TimeOfDay) Booking {
	return Booking{
		ID:          uuid.New(),
		StaffID:     testStaffID,
		StartMinute: start,
		EndMinute:   end,
		Status:      BookingStatusActive,
	}
}

func TestHasConflict(t *testing.T) {
	bookings := []Booking{activeBooking(540, 555)} // 09:00-09:15

	t.Run("overlap detected", func(t *testing.T) {
		if !HasConflict(Interval{Start: 550, End: 565}, bookings) {
			t.Fatalf("expected conflict for 09:10-09:25")
		}
	})

	t.Run("touching boundary is not a conflict", func(t *testing.T) {
		if HasConflict(Interval{Start: 555, End: 570}, bookings) {
			t.Fatalf("09:15-09:30 touches 09:00-09:15 and must not conflict")
		}
	})

	t.Run("non-active statuses never block", func(t *testing.T) {
		for _, status := range []BookingStatus{
			BookingStatusCancelled, BookingStatusCompleted, BookingStatusNoShow,
		} {
			b := activeBooking(540, 555)
			b.Status = status
			if HasConflict(Interval{Start: 540, End: 555}, []Booking{b}) {
				t.Errorf("%s booking must not block", status)
			}
		}
	})
}

func TestMarkAvailability(t *testing.T) {
	date := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	window := mustInterval(t, 540, 600)
	candidates := GenerateSlots(window, 15)
	bookings := []Booking{activeBooking(555, 570)} // 09:15-09:30

	slots := MarkAvailability(testStaffID, date, candidates, bookings)
	if len(slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4", len(slots))
	}

	for i, s := range slots {
		if s.StaffID != testStaffID {
			t.Fatalf("slots[%d].StaffID = %s", i, s.StaffID)
		}
		if !s.Date.Equal(date) {
			t.Fatalf("slots[%d].Date = %v, want %v", i, s.Date, date)
		}
	}

	if !slots[0].Available || !slots[2].Available || !slots[3].Available {
		t.Fatalf("only the booked slot should be unavailable: %+v", slots)
	}
	if slots[1].Available {
		t.Fatalf("slot %v overlaps the booking and must be unavailable", slots[1].Window)
	}
	if slots[1].Reason != ReasonAlreadyBooked {
		t.Fatalf("reason = %q, want %q", slots[1].Reason, ReasonAlreadyBooked)
	}
}

func TestMarkAvailability_NoBookings(t *testing.T) {
	date := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	candidates := GenerateSlots(mustInterval(t, 540, 600), 15)

	slots := MarkAvailability(testStaffID, date, candidates, nil)
	for _, s := range slots {
		if !s.Available || s.Reason != "" {
			t.Fatalf("slot %v should be available with no reason", s.Window)
		}
	}
}
