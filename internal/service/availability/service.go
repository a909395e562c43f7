package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vetdesk/backend/internal/domain"
	"vetdesk/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

const (
	DefaultFanOutLimit  = 8
	DefaultStaffTimeout = 5 * time.Second
)

// Service computes bookable slots and admits new bookings without overlaps.
// All state lives behind the store interfaces; the service itself is
// stateless and safe for concurrent use.
type Service struct {
	staff     store.StaffDirectory
	schedules store.ScheduleRepository
	bookings  store.BookingRepository

	fanOutLimit  int
	staffTimeout time.Duration
}

type Option func(*Service)

// WithFanOutLimit bounds how many staff members are resolved concurrently
// during a listing call.
func WithFanOutLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOutLimit = n
		}
	}
}

// WithStaffTimeout bounds the external reads for a single staff member.
func WithStaffTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staffTimeout = d
		}
	}
}

func NewService(staff store.StaffDirectory, schedules store.ScheduleRepository, bookings store.BookingRepository, opts ...Option) *Service {
	s := &Service{
		staff:        staff,
		schedules:    schedules,
		bookings:     bookings,
		fanOutLimit:  DefaultFanOutLimit,
		staffTimeout: DefaultStaffTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ListInput struct {
	EntityID        uuid.UUID
	Date            time.Time
	DurationMinutes int

	// StaffID restricts the listing to a single staff member; uuid.Nil
	// means every bookable staff member of the entity.
	StaffID uuid.UUID
	Role    string
}

type ListResult struct {
	Date            time.Time
	DurationMinutes int
	Slots           []domain.Slot
	StaffErrors     map[uuid.UUID]string
}

// ListAvailableSlots resolves each eligible staff member's working window for
// the date, partitions it into slots of the requested duration and flags the
// ones taken by active bookings. Staff members are resolved concurrently with
// a bounded fan-out; a failure or an unavailable day for one staff member is
// reported in StaffErrors and never fails the listing.
func (s *Service) ListAvailableSlots(ctx context.Context, in ListInput) (ListResult, error) {
	if in.EntityID == uuid.Nil {
		return ListResult{}, validationError("entity_id is required")
	}
	if in.Date.IsZero() {
		return ListResult{}, validationError("date is required")
	}
	if in.DurationMinutes <= 0 {
		return ListResult{}, validationError("duration_minutes must be positive")
	}

	date := domain.CivilDate(in.Date)

	roster, err := s.resolveRoster(ctx, in)
	if err != nil {
		return ListResult{}, err
	}

	type staffOutcome struct {
		slots  []domain.Slot
		reason string
	}
	outcomes := make([]staffOutcome, len(roster))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOutLimit)
	for i, member := range roster {
		g.Go(func() error {
			slots, reason := s.resolveStaffSlots(gctx, member.ID, date, in.DurationMinutes)
			outcomes[i] = staffOutcome{slots: slots, reason: reason}
			return nil
		})
	}
	// Workers never return errors; failures are per-staff reasons.
	_ = g.Wait()

	result := ListResult{
		Date:            date,
		DurationMinutes: in.DurationMinutes,
		Slots:           make([]domain.Slot, 0, 32),
		StaffErrors:     make(map[uuid.UUID]string),
	}
	for i, member := range roster {
		if outcomes[i].reason != "" {
			result.StaffErrors[member.ID] = outcomes[i].reason
		}
		result.Slots = append(result.Slots, outcomes[i].slots...)
	}

	sort.SliceStable(result.Slots, func(i, j int) bool {
		a, b := result.Slots[i], result.Slots[j]
		if a.Window.Start != b.Window.Start {
			return a.Window.Start < b.Window.Start
		}
		return strings.Compare(a.StaffID.String(), b.StaffID.String()) < 0
	})

	return result, nil
}

func (s *Service) resolveRoster(ctx context.Context, in ListInput) ([]domain.Staff, error) {
	if in.StaffID != uuid.Nil {
		member, err := s.staff.GetStaff(ctx, in.EntityID, in.StaffID)
		if err != nil {
			return nil, err
		}
		if !member.Bookable() {
			return nil, store.ErrNotFound
		}
		if in.Role != "" && member.Role != in.Role {
			return nil, store.ErrNotFound
		}
		return []domain.Staff{member}, nil
	}
	return s.staff.ListBookableStaff(ctx, in.EntityID, in.Role)
}

// resolveStaffSlots computes one staff member's slots for the day. A
// non-empty reason means no bookable slots: either a resolved unavailable
// day or a failed external read.
func (s *Service) resolveStaffSlots(ctx context.Context, staffID uuid.UUID, date time.Time, durationMinutes int) ([]domain.Slot, string) {
	ctx, cancel := context.WithTimeout(ctx, s.staffTimeout)
	defer cancel()

	rules, err := s.schedules.ListWeeklyRules(ctx, staffID, int(date.Weekday()), date)
	if err != nil {
		return nil, "schedule lookup failed: " + err.Error()
	}
	exceptions, err := s.schedules.ListExceptions(ctx, staffID, date)
	if err != nil {
		return nil, "exception lookup failed: " + err.Error()
	}

	day, err := domain.ResolveWindow(rules, exceptions, date)
	if err != nil {
		return nil, err.Error()
	}
	if day.Unavailable {
		return nil, day.Reason
	}

	bookings, err := s.bookings.ListActiveBookings(ctx, staffID, date)
	if err != nil {
		return nil, "booking lookup failed: " + err.Error()
	}

	candidates := domain.GenerateSlots(day.Window, durationMinutes)
	return domain.MarkAvailability(staffID, date, candidates, bookings), ""
}

type AdmitInput struct {
	EntityID     uuid.UUID
	StaffID      uuid.UUID
	Date         time.Time
	Start        domain.TimeOfDay
	End          domain.TimeOfDay
	ExternalID   string
	SourceSystem string
	Metadata     map[string]string
}

// AdmitBooking accepts a proposed booking if the staff member belongs to the
// entity, the (external id, source system) pair is unused and the interval
// does not overlap an active booking. The pre-insert checks are a fast
// reject; the storage constraints enforce the same rules against concurrent
// writers and surface as the same sentinel errors.
func (s *Service) AdmitBooking(ctx context.Context, in AdmitInput) (domain.Booking, error) {
	if in.EntityID == uuid.Nil {
		return domain.Booking{}, validationError("entity_id is required")
	}
	if in.StaffID == uuid.Nil {
		return domain.Booking{}, validationError("staff_id is required")
	}
	if in.Date.IsZero() {
		return domain.Booking{}, validationError("date is required")
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return domain.Booking{}, validationError("external_id is required")
	}
	sourceSystem := strings.TrimSpace(in.SourceSystem)
	if sourceSystem == "" {
		return domain.Booking{}, validationError("source_system is required")
	}

	window, err := domain.NewInterval(in.Start, in.End)
	if err != nil {
		return domain.Booking{}, err
	}

	member, err := s.staff.GetStaff(ctx, in.EntityID, in.StaffID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !member.Bookable() {
		return domain.Booking{}, store.ErrNotFound
	}

	date := domain.CivilDate(in.Date)

	_, err = s.bookings.FindByExternalID(ctx, externalID, sourceSystem)
	switch {
	case err == nil:
		return domain.Booking{}, store.ErrDuplicate
	case !errors.Is(err, store.ErrNotFound):
		return domain.Booking{}, fmt.Errorf("duplicate check: %w", err)
	}

	existing, err := s.bookings.ListActiveBookings(ctx, in.StaffID, date)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("conflict check: %w", err)
	}
	if domain.HasConflict(window, existing) {
		return domain.Booking{}, store.ErrConflict
	}

	return s.bookings.Create(ctx, domain.Booking{
		EntityID:     in.EntityID,
		StaffID:      in.StaffID,
		Date:         date,
		StartMinute:  window.Start,
		EndMinute:    window.End,
		Status:       domain.BookingStatusActive,
		ExternalID:   externalID,
		SourceSystem: sourceSystem,
		Metadata:     in.Metadata,
	})
}
