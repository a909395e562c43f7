package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vetdesk/backend/internal/domain"
)

// StaffDirectory resolves bookable staff members within an entity.
type StaffDirectory interface {
	GetStaff(ctx context.Context, entityID, staffID uuid.UUID) (domain.Staff, error)
	ListBookableStaff(ctx context.Context, entityID uuid.UUID, role string) ([]domain.Staff, error)
}

// ScheduleRepository reads the layered schedule data for one staff member.
// Rules and exceptions are owned by external scheduling management and are
// read-only here.
type ScheduleRepository interface {
	ListWeeklyRules(ctx context.Context, staffID uuid.UUID, weekday int, date time.Time) ([]domain.WeeklyScheduleRule, error)
	ListExceptions(ctx context.Context, staffID uuid.UUID, date time.Time) ([]domain.ScheduleException, error)
}

// BookingRepository reads and creates committed bookings.
type BookingRepository interface {
	ListActiveBookings(ctx context.Context, staffID uuid.UUID, date time.Time) ([]domain.Booking, error)
	FindByExternalID(ctx context.Context, externalID, sourceSystem string) (domain.Booking, error)
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
}
