package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"classbook/internal/apperr"
)

const bookingColumns = `id, fitness_class_id, client_name, client_email, created_at, updated_at`

// Repository owns bookings rows. Methods used by the allocator take an
// sqlx.ExtContext so duplicate checks and inserts share the transaction that
// holds the class-row lock.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// FindByClassAndEmail looks up an existing booking for the pair. Emails are
// stored lowercase, so the lookup is exact. Returns (nil, nil) when absent.
func (r *Repository) FindByClassAndEmail(ctx context.Context, q sqlx.ExtContext, classID int, email string) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE fitness_class_id = $1 AND client_email = $2
	`

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, classID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.FromDB(err)
	}

	return &b, nil
}

// Create inserts a booking row. A unique-constraint violation on
// (fitness_class_id, client_email) surfaces as DuplicateBooking.
func (r *Repository) Create(ctx context.Context, q sqlx.ExtContext, classID int, clientName, clientEmail string) (*Booking, error) {
	query := `
		INSERT INTO bookings (fitness_class_id, client_name, client_email)
		VALUES ($1, $2, $3)
		RETURNING ` + bookingColumns

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, classID, clientName, clientEmail)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return &b, nil
}

// GetByID is a plain read used to resolve the owning class before any lock
// is taken (lock order: class before booking).
func (r *Repository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindBookingNotFound, "booking not found").With("booking_id", id)
		}
		return nil, apperr.FromDB(err)
	}

	return &b, nil
}

// GetForUpdate locks the booking row. Callers must already hold the owning
// class-row lock in the same transaction.
func (r *Repository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindBookingNotFound, "booking not found").With("booking_id", id)
		}
		return nil, apperr.FromDB(err)
	}

	return &b, nil
}

func (r *Repository) Delete(ctx context.Context, q sqlx.ExtContext, id int) error {
	result, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperr.Newf(apperr.KindBookingNotFound, "booking not found").With("booking_id", id)
	}

	return nil
}

// bookingRow carries the joined class columns flat; ToBookingWithClass
// reassembles the nested response shape.
type bookingRow struct {
	Booking
	ClassName           string    `db:"class_name"`
	ClassDescription    *string   `db:"class_description"`
	ClassInstructor     string    `db:"class_instructor"`
	ClassStartTime      time.Time `db:"class_start_time"`
	ClassEndTime        time.Time `db:"class_end_time"`
	ClassCapacity       int       `db:"class_capacity"`
	ClassAvailableSlots int       `db:"class_available_slots"`
	ClassTimezone       string    `db:"class_timezone"`
	ClassCreatedAt      time.Time `db:"class_created_at"`
	ClassUpdatedAt      time.Time `db:"class_updated_at"`
}

// ListByEmail returns bookings for a normalized email joined to their owning
// class, ordered by class start time ascending. When upcomingFrom is
// non-nil, only classes starting at or after it are included.
func (r *Repository) ListByEmail(ctx context.Context, email string, upcomingFrom *time.Time, offset, limit int) ([]bookingRow, error) {
	query := `
		SELECT
			b.id,
			b.fitness_class_id,
			b.client_name,
			b.client_email,
			b.created_at,
			b.updated_at,
			c.name AS class_name,
			c.description AS class_description,
			c.instructor AS class_instructor,
			c.start_time AS class_start_time,
			c.end_time AS class_end_time,
			c.capacity AS class_capacity,
			c.available_slots AS class_available_slots,
			c.timezone AS class_timezone,
			c.created_at AS class_created_at,
			c.updated_at AS class_updated_at
		FROM bookings b
		JOIN fitness_classes c ON b.fitness_class_id = c.id
		WHERE b.client_email = $1
	`
	args := []interface{}{email}

	if upcomingFrom != nil {
		query += ` AND c.start_time >= $2`
		args = append(args, *upcomingFrom)
	}

	query += ` ORDER BY c.start_time ASC`
	if upcomingFrom != nil {
		query += ` OFFSET $3 LIMIT $4`
	} else {
		query += ` OFFSET $2 LIMIT $3`
	}
	args = append(args, offset, limit)

	rows := []bookingRow{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return rows, nil
}
