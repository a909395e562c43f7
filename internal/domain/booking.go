package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Staff is a bookable person scoped to one entity (tenant).
type Staff struct {
	bun.BaseModel `bun:"table:staff"`

	ID                  uuid.UUID `bun:"id,pk,type:uuid"`
	EntityID            uuid.UUID `bun:"entity_id,notnull,type:uuid"`
	DisplayName         string    `bun:"display_name,notnull"`
	Role                string    `bun:"role,notnull"`
	Active              bool      `bun:"active,notnull"`
	CanTakeAppointments bool      `bun:"can_take_appointments,notnull"`
	CreatedAt           time.Time `bun:"created_at,notnull"`
	UpdatedAt           time.Time `bun:"updated_at,notnull"`
}

func (s Staff) Bookable() bool {
	return s.Active && s.CanTakeAppointments
}

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// Booking is a committed appointment span. Only active bookings block slots.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID           uuid.UUID         `bun:"id,pk,type:uuid"`
	EntityID     uuid.UUID         `bun:"entity_id,notnull,type:uuid"`
	StaffID      uuid.UUID         `bun:"staff_id,notnull,type:uuid"`
	Date         time.Time         `bun:"date,notnull"`
	StartMinute  TimeOfDay         `bun:"start_minute,notnull"`
	EndMinute    TimeOfDay         `bun:"end_minute,notnull"`
	Status       BookingStatus     `bun:"status,notnull"`
	ExternalID   string            `bun:"external_id,notnull"`
	SourceSystem string            `bun:"source_system,notnull"`
	Metadata     map[string]string `bun:"metadata,type:jsonb"`
	CreatedAt    time.Time         `bun:"created_at,notnull"`
	UpdatedAt    time.Time         `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

func (b Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

func (b Booking) Window() (Interval, error) {
	return NewInterval(b.StartMinute, b.EndMinute)
}
