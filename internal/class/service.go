package class

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"classbook/internal/apperr"
	"classbook/internal/logger"
	"classbook/internal/timezone"
)

// Service drives the class lifecycle: create, partial update, delete and
// listing. Every mutation runs in a single transaction holding an exclusive
// lock on the row it touches.
type Service interface {
	Create(ctx context.Context, req CreateClassRequest, tzID string) (*FitnessClass, error)
	Update(ctx context.Context, id int, req UpdateClassRequest, tzID string) (*FitnessClass, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, tzID string, offset, limit int) ([]FitnessClass, error)
}

type service struct {
	db   *sqlx.DB
	repo *Repository
}

func NewService(db *sqlx.DB, repo *Repository) Service {
	return &service{db: db, repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateClassRequest, tzID string) (*FitnessClass, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}

	startTime, err := timezone.NormalizeToUTC(req.StartTime, tzID)
	if err != nil {
		return nil, err
	}
	endTime, err := timezone.NormalizeToUTC(req.EndTime, tzID)
	if err != nil {
		return nil, err
	}

	if !endTime.After(startTime) {
		return nil, apperr.New(apperr.KindInvalidTimeRange, "end_time must be after start_time")
	}
	if req.Capacity <= 0 {
		return nil, apperr.New(apperr.KindInvalidTimeRange, "capacity must be positive")
	}

	created, err := s.repo.Create(ctx, s.db, &FitnessClass{
		Name:           req.Name,
		Description:    req.Description,
		Instructor:     req.Instructor,
		StartTime:      startTime,
		EndTime:        endTime,
		Capacity:       req.Capacity,
		AvailableSlots: req.Capacity,
		Timezone:       tzID,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created fitness class",
		"class_id", created.ID,
		"name", created.Name,
		"start_time", created.StartTime.Format(time.RFC3339),
		"capacity", created.Capacity,
	)

	localized, err := created.Localized(tzID)
	if err != nil {
		return nil, err
	}
	return &localized, nil
}

func (s *service) Update(ctx context.Context, id int, req UpdateClassRequest, tzID string) (*FitnessClass, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = req.Description
	}
	if req.Instructor != nil {
		current.Instructor = *req.Instructor
	}
	if req.StartTime != nil {
		startTime, err := timezone.NormalizeToUTC(*req.StartTime, tzID)
		if err != nil {
			return nil, err
		}
		current.StartTime = startTime
	}
	if req.EndTime != nil {
		endTime, err := timezone.NormalizeToUTC(*req.EndTime, tzID)
		if err != nil {
			return nil, err
		}
		current.EndTime = endTime
	}
	if req.Capacity != nil {
		current.Capacity = *req.Capacity
	}

	if !current.EndTime.After(current.StartTime) {
		return nil, apperr.New(apperr.KindInvalidTimeRange, "end_time must be after start_time")
	}
	if current.Capacity < current.AvailableSlots {
		return nil, apperr.Newf(apperr.KindInvalidTimeRange, "capacity cannot be less than available slots").
			With("capacity", current.Capacity).
			With("available_slots", current.AvailableSlots)
	}

	updated, err := s.repo.Update(ctx, tx, current)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromDB(err)
	}

	logger.Info("Updated fitness class", "class_id", updated.ID)

	localized, err := updated.Localized(tzID)
	if err != nil {
		return nil, err
	}
	return &localized, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	removedBookings, err := s.repo.Delete(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.FromDB(err)
	}

	logger.Info("Deleted fitness class",
		"class_id", id,
		"name", current.Name,
		"removed_bookings", removedBookings,
	)

	return nil
}

// List validates the timezone before touching the store, then returns
// upcoming classes localized to the display timezone.
func (s *service) List(ctx context.Context, tzID string, offset, limit int) ([]FitnessClass, error) {
	if err := timezone.Validate(tzID); err != nil {
		return nil, err
	}

	classes, err := s.repo.List(ctx, time.Now().UTC(), offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]FitnessClass, 0, len(classes))
	for _, c := range classes {
		localized, err := c.Localized(tzID)
		if err != nil {
			return nil, err
		}
		out = append(out, localized)
	}

	return out, nil
}
