package class

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"classbook/internal/apperr"
)

const classColumns = `id, name, description, instructor, start_time, end_time, capacity, available_slots, timezone, created_at, updated_at`

// Repository owns fitness_classes rows. Mutating methods take an
// sqlx.ExtContext so they run inside the caller's transaction; a *sqlx.Tx or
// the bare *sqlx.DB both satisfy it.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *sqlx.DB {
	return r.db
}

func (r *Repository) Create(ctx context.Context, q sqlx.ExtContext, c *FitnessClass) (*FitnessClass, error) {
	query := `
		INSERT INTO fitness_classes (name, description, instructor, start_time, end_time, capacity, available_slots, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns

	var created FitnessClass
	err := sqlx.GetContext(ctx, q, &created, query,
		c.Name, c.Description, c.Instructor, c.StartTime, c.EndTime, c.Capacity, c.AvailableSlots, c.Timezone)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return &created, nil
}

// GetForUpdate reads one class row under an exclusive lock that is held
// until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int) (*FitnessClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM fitness_classes
		WHERE id = $1
		FOR UPDATE
	`

	var c FitnessClass
	err := sqlx.GetContext(ctx, q, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindClassNotFound, "class not found").With("class_id", id)
		}
		return nil, apperr.FromDB(err)
	}

	return &c, nil
}

// GetAvailableForUpdate locks the class row only when it still has free
// slots. sql.ErrNoRows covers both a missing class and a full one; the
// allocator folds both into ClassFull.
func (r *Repository) GetAvailableForUpdate(ctx context.Context, q sqlx.ExtContext, id int) (*FitnessClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM fitness_classes
		WHERE id = $1 AND available_slots > 0
		FOR UPDATE
	`

	var c FitnessClass
	err := sqlx.GetContext(ctx, q, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindClassFull, "no available slots").With("class_id", id)
		}
		return nil, apperr.FromDB(err)
	}

	return &c, nil
}

// GetShared reads the class row under a shared lock so a concurrent booking
// cannot land mid-read.
func (r *Repository) GetShared(ctx context.Context, q sqlx.ExtContext, id int) (*FitnessClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM fitness_classes
		WHERE id = $1
		FOR SHARE
	`

	var c FitnessClass
	err := sqlx.GetContext(ctx, q, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindClassNotFound, "class not found").With("class_id", id)
		}
		return nil, apperr.FromDB(err)
	}

	return &c, nil
}

// Update writes the full row back. The caller must hold the row lock from
// GetForUpdate in the same transaction.
func (r *Repository) Update(ctx context.Context, q sqlx.ExtContext, c *FitnessClass) (*FitnessClass, error) {
	query := `
		UPDATE fitness_classes
		SET name = $1, description = $2, instructor = $3, start_time = $4, end_time = $5,
		    capacity = $6, available_slots = $7, timezone = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + classColumns

	var updated FitnessClass
	err := sqlx.GetContext(ctx, q, &updated, query,
		c.Name, c.Description, c.Instructor, c.StartTime, c.EndTime,
		c.Capacity, c.AvailableSlots, c.Timezone, c.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindClassNotFound, "class not found").With("class_id", c.ID)
		}
		return nil, apperr.FromDB(err)
	}

	return &updated, nil
}

// SetAvailableSlots overwrites the slot counter on a row the caller has
// locked. The schema CHECK rejects values outside [0, capacity] as a last
// line of defense.
func (r *Repository) SetAvailableSlots(ctx context.Context, q sqlx.ExtContext, id, slots int) error {
	query := `
		UPDATE fitness_classes
		SET available_slots = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := q.ExecContext(ctx, query, slots, id)
	if err != nil {
		return apperr.FromDB(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperr.Newf(apperr.KindClassNotFound, "class not found").With("class_id", id)
	}

	return nil
}

// Delete removes the class and its bookings as an explicit two-step cascade
// inside the caller's transaction. The FK ON DELETE CASCADE is a schema-level
// backstop, not the mechanism.
func (r *Repository) Delete(ctx context.Context, q sqlx.ExtContext, id int) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE fitness_class_id = $1`, id)
	if err != nil {
		return 0, apperr.FromDB(err)
	}
	removedBookings, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	result, err = q.ExecContext(ctx, `DELETE FROM fitness_classes WHERE id = $1`, id)
	if err != nil {
		return 0, apperr.FromDB(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected == 0 {
		return 0, apperr.Newf(apperr.KindClassNotFound, "class not found").With("class_id", id)
	}

	return int(removedBookings), nil
}

// List returns classes starting at or after from, ordered by start time.
func (r *Repository) List(ctx context.Context, from time.Time, offset, limit int) ([]FitnessClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM fitness_classes
		WHERE start_time >= $1
		ORDER BY start_time ASC
		OFFSET $2 LIMIT $3
	`

	classes := []FitnessClass{}
	err := r.db.SelectContext(ctx, &classes, query, from, offset, limit)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return classes, nil
}
