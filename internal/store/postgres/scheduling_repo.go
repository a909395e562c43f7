package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"vetdesk/backend/internal/domain"
	"vetdesk/backend/internal/store"
)

// Constraint names the database enforces on bookings. The repo maps their
// violations onto store sentinels so the engine's fast-reject checks and the
// storage guarantees surface as the same error taxonomy.
const (
	bookingNoOverlapConstraint  = "bookings_no_overlap"
	bookingExternalIDConstraint = "bookings_external_id_source_system_active_idx"
)

type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

func (r *SchedulingRepo) GetStaff(ctx context.Context, entityID, staffID uuid.UUID) (domain.Staff, error) {
	var row domain.Staff
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", staffID).
		Where("entity_id = ?", entityID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Staff{}, store.ErrNotFound
		}
		return domain.Staff{}, err
	}
	return row, nil
}

func (r *SchedulingRepo) ListBookableStaff(ctx context.Context, entityID uuid.UUID, role string) ([]domain.Staff, error) {
	var rows []domain.Staff
	q := r.db.NewSelect().
		Model(&rows).
		Where("entity_id = ?", entityID).
		Where("active").
		Where("can_take_appointments")
	if role != "" {
		q = q.Where("role = ?", role)
	}

	if err := q.OrderExpr("display_name ASC, id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) ListWeeklyRules(ctx context.Context, staffID uuid.UUID, weekday int, date time.Time) ([]domain.WeeklyScheduleRule, error) {
	day := domain.CivilDate(date)

	var rows []domain.WeeklyScheduleRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("staff_id = ?", staffID).
		Where("weekday = ?", weekday).
		Where("active").
		Where("effective_from <= ?", day).
		Where("effective_until IS NULL OR effective_until >= ?", day).
		OrderExpr("effective_from DESC, created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) ListExceptions(ctx context.Context, staffID uuid.UUID, date time.Time) ([]domain.ScheduleException, error) {
	var rows []domain.ScheduleException
	err := r.db.NewSelect().
		Model(&rows).
		Where("staff_id = ?", staffID).
		Where("date = ?", domain.CivilDate(date)).
		Where("active").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) ListActiveBookings(ctx context.Context, staffID uuid.UUID, date time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("staff_id = ?", staffID).
		Where("date = ?", domain.CivilDate(date)).
		Where("status = ?", domain.BookingStatusActive).
		OrderExpr("start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) FindByExternalID(ctx context.Context, externalID, sourceSystem string) (domain.Booking, error) {
	var row domain.Booking
	err := r.db.NewSelect().
		Model(&row).
		Where("external_id = ?", externalID).
		Where("source_system = ?", sourceSystem).
		Where("status = ?", domain.BookingStatusActive).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return row, nil
}

func (r *SchedulingRepo) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := booking
	m.Date = domain.CivilDate(booking.Date)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockStaffDay(ctx, tx, m.StaffID, m.Date); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&m).Exec(ctx)
		return err
	})
	if err != nil {
		return domain.Booking{}, mapBookingInsertError(err)
	}
	return m, nil
}

// lockStaffDay serializes booking writes for one staff member and date so
// the engine's read-then-write admission sequence cannot interleave.
func lockStaffDay(ctx context.Context, tx bun.Tx, staffID uuid.UUID, date time.Time) error {
	key := staffID.String() + ":" + date.Format("2006-01-02")
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}

func mapBookingInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == "23P01" && pgErr.ConstraintName == bookingNoOverlapConstraint:
		return store.ErrConflict
	case pgErr.Code == "23505" && pgErr.ConstraintName == bookingExternalIDConstraint:
		return store.ErrDuplicate
	case pgErr.Code == "23505":
		return store.ErrConflict
	}
	return err
}
