package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"classbook/internal/apperr"
	"classbook/internal/class"
	"classbook/internal/logger"
	"classbook/internal/metrics"
	"classbook/internal/timezone"
)

// Service is the slot allocator. Every mutating operation runs as one
// transaction that locks the class row before any invariant check the
// mutation depends on; concurrency safety comes entirely from the store's
// row locking, never from in-process synchronization.
type Service interface {
	Book(ctx context.Context, req BookRequest, tzID string) (*BookingWithClass, error)
	Cancel(ctx context.Context, bookingID int) (*CancelResult, error)
	CheckAvailability(ctx context.Context, classID int, tzID string) (*Availability, error)
	ListByEmail(ctx context.Context, email, tzID string, upcomingOnly bool, offset, limit int) ([]BookingWithClass, error)
}

type service struct {
	db        *sqlx.DB
	repo      *Repository
	classRepo *class.Repository
}

func NewService(db *sqlx.DB, repo *Repository, classRepo *class.Repository) Service {
	return &service{
		db:        db,
		repo:      repo,
		classRepo: classRepo,
	}
}

// NormalizeEmail lowercases and trims a client email; it is the stored
// representation and the one the uniqueness constraint sees.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Book(ctx context.Context, req BookRequest, tzID string) (*BookingWithClass, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}
	email := NormalizeEmail(req.ClientEmail)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the class row filtered on available_slots > 0. A miss means
	// "class full" whether the class is packed or absent; callers who need
	// the distinction use the availability check.
	cls, err := s.classRepo.GetAvailableForUpdate(ctx, tx, req.FitnessClassID)
	if err != nil {
		recordBookingFailure(err)
		return nil, err
	}

	existing, err := s.repo.FindByClassAndEmail(ctx, tx, cls.ID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecordBooking("duplicate")
		return nil, apperr.Newf(apperr.KindDuplicateBooking, "you have already booked this class").
			With("class_id", cls.ID).
			With("client_email", email)
	}

	created, err := s.repo.Create(ctx, tx, cls.ID, strings.TrimSpace(req.ClientName), email)
	if err != nil {
		recordBookingFailure(err)
		return nil, err
	}

	if err := s.classRepo.SetAvailableSlots(ctx, tx, cls.ID, cls.AvailableSlots-1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		err = apperr.FromDB(err)
		recordBookingFailure(err)
		return nil, err
	}

	cls.AvailableSlots--
	metrics.RecordBooking("confirmed")
	logger.Info("Booked fitness class",
		"booking_id", created.ID,
		"class_id", cls.ID,
		"client_email", email,
		"available_slots", cls.AvailableSlots,
	)

	localized, err := cls.Localized(tzID)
	if err != nil {
		return nil, err
	}

	return &BookingWithClass{Booking: *created, FitnessClass: localized}, nil
}

// Cancel releases a slot. Lock order is class before booking, the same
// order Book uses, so concurrent book and cancel on one class cannot
// deadlock.
func (s *service) Cancel(ctx context.Context, bookingID int) (*CancelResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Plain read to learn the owning class; the booking row itself is
	// locked after the class lock and re-checked.
	b, err := s.repo.GetByID(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	cls, err := s.classRepo.GetForUpdate(ctx, tx, b.FitnessClassID)
	if err != nil {
		if errors.Is(err, apperr.ErrClassNotFound) {
			// A booking referencing a missing class is storage corruption,
			// not a user error.
			return nil, apperr.Newf(apperr.KindInternalInconsistency, "owning class missing for booking").
				With("booking_id", bookingID).
				With("class_id", b.FitnessClassID)
		}
		return nil, err
	}

	if _, err := s.repo.GetForUpdate(ctx, tx, bookingID); err != nil {
		// Lost a race with a concurrent cancel of the same booking.
		return nil, err
	}

	if cls.AvailableSlots+1 > cls.Capacity {
		logger.Error("Slot counter above capacity on cancel",
			"booking_id", bookingID,
			"class_id", cls.ID,
			"available_slots", cls.AvailableSlots,
			"capacity", cls.Capacity,
		)
		return nil, apperr.Newf(apperr.KindInternalInconsistency, "available slots would exceed capacity").
			With("class_id", cls.ID).
			With("available_slots", cls.AvailableSlots).
			With("capacity", cls.Capacity)
	}

	if err := s.repo.Delete(ctx, tx, bookingID); err != nil {
		return nil, err
	}
	if err := s.classRepo.SetAvailableSlots(ctx, tx, cls.ID, cls.AvailableSlots+1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromDB(err)
	}

	metrics.RecordBookingCancellation()
	logger.Info("Cancelled booking",
		"booking_id", bookingID,
		"class_id", cls.ID,
		"client_email", b.ClientEmail,
		"available_slots", cls.AvailableSlots+1,
	)

	return &CancelResult{
		Status:         "success",
		Message:        "Booking cancelled successfully",
		ClassName:      cls.Name,
		AvailableSlots: cls.AvailableSlots + 1,
	}, nil
}

// CheckAvailability returns a consistent snapshot of the slot state under a
// shared lock, so a concurrent booking cannot land mid-read.
func (s *service) CheckAvailability(ctx context.Context, classID int, tzID string) (*Availability, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cls, err := s.classRepo.GetShared(ctx, tx, classID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromDB(err)
	}

	now := time.Now().UTC()
	timeUntilStart := 0.0
	if cls.StartTime.After(now) {
		timeUntilStart = cls.StartTime.Sub(now).Seconds()
	}

	localized, err := cls.Localized(tzID)
	if err != nil {
		return nil, err
	}

	return &Availability{
		ClassID:        cls.ID,
		ClassName:      cls.Name,
		StartTime:      localized.StartTime,
		EndTime:        localized.EndTime,
		AvailableSlots: cls.AvailableSlots,
		TotalCapacity:  cls.Capacity,
		IsAvailable:    cls.AvailableSlots > 0 && cls.StartTime.After(now),
		TimeUntilStart: timeUntilStart,
		Timezone:       tzID,
	}, nil
}

func (s *service) ListByEmail(ctx context.Context, email, tzID string, upcomingOnly bool, offset, limit int) ([]BookingWithClass, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)

	var upcomingFrom *time.Time
	if upcomingOnly {
		now := time.Now().UTC()
		upcomingFrom = &now
	}

	rows, err := s.repo.ListByEmail(ctx, email, upcomingFrom, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]BookingWithClass, 0, len(rows))
	for _, row := range rows {
		cls := class.FitnessClass{
			ID:             row.FitnessClassID,
			Name:           row.ClassName,
			Description:    row.ClassDescription,
			Instructor:     row.ClassInstructor,
			StartTime:      row.ClassStartTime,
			EndTime:        row.ClassEndTime,
			Capacity:       row.ClassCapacity,
			AvailableSlots: row.ClassAvailableSlots,
			Timezone:       row.ClassTimezone,
			CreatedAt:      row.ClassCreatedAt,
			UpdatedAt:      row.ClassUpdatedAt,
		}
		localized, err := cls.Localized(tzID)
		if err != nil {
			return nil, err
		}
		out = append(out, BookingWithClass{Booking: row.Booking, FitnessClass: localized})
	}

	return out, nil
}

func recordBookingFailure(err error) {
	switch apperr.KindOf(err) {
	case apperr.KindClassFull:
		metrics.RecordBooking("class_full")
	case apperr.KindDuplicateBooking:
		metrics.RecordBooking("duplicate")
	case apperr.KindTransactionConflict:
		metrics.RecordTransactionConflict()
		metrics.RecordBooking("error")
	default:
		metrics.RecordBooking("error")
	}
}
