package domain

import (
	"time"

	"github.com/google/uuid"
)

const ReasonAlreadyBooked = "Already booked"

// Slot is a candidate appointment time. Slots are recomputed on every query
// and never persisted.
type Slot struct {
	StaffID   uuid.UUID `json:"staff_id"`
	Date      time.Time `json:"date"`
	Window    Interval  `json:"window"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// GenerateSlots partitions the window into consecutive slots of exactly
// durationMinutes, aligned to the window start. A trailing remainder shorter
// than the duration is dropped. Pure function of its inputs.
func GenerateSlots(window Interval, durationMinutes int) []Interval {
	if durationMinutes <= 0 {
		return nil
	}
	d := TimeOfDay(durationMinutes)

	out := make([]Interval, 0, window.Minutes()/durationMinutes)
	for start := window.Start; start+d <= window.End; start += d {
		out = append(out, Interval{Start: start, End: start + d})
	}
	return out
}

// HasConflict reports whether the proposed interval overlaps any active
// booking. Cancelled, completed and no-show bookings never block.
func HasConflict(proposed Interval, bookings []Booking) bool {
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		if proposed.Overlaps(Interval{Start: b.StartMinute, End: b.EndMinute}) {
			return true
		}
	}
	return false
}

// MarkAvailability turns candidate windows into slots, flagging the ones that
// overlap an active booking.
func MarkAvailability(staffID uuid.UUID, date time.Time, candidates []Interval, bookings []Booking) []Slot {
	slots := make([]Slot, 0, len(candidates))
	for _, window := range candidates {
		slot := Slot{
			StaffID:   staffID,
			Date:      CivilDate(date),
			Window:    window,
			Available: true,
		}
		if HasConflict(window, bookings) {
			slot.Available = false
			slot.Reason = ReasonAlreadyBooked
		}
		slots = append(slots, slot)
	}
	return slots
}
