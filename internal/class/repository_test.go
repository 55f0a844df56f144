package class

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"classbook/internal/apperr"
)

func setupMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

func classRows(c FitnessClass) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "instructor", "start_time", "end_time",
		"capacity", "available_slots", "timezone", "created_at", "updated_at",
	}).AddRow(c.ID, c.Name, c.Description, c.Instructor, c.StartTime, c.EndTime,
		c.Capacity, c.AvailableSlots, c.Timezone, c.CreatedAt, c.UpdatedAt)
}

func sampleClass() FitnessClass {
	now := time.Now().UTC()
	return FitnessClass{
		ID:             1,
		Name:           "Morning Yoga",
		Instructor:     "Priya Sharma",
		StartTime:      now.Add(24 * time.Hour),
		EndTime:        now.Add(25 * time.Hour),
		Capacity:       15,
		AvailableSlots: 15,
		Timezone:       "Asia/Kolkata",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateClass(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	c := sampleClass()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fitness_classes (name, description, instructor, start_time, end_time, capacity, available_slots, timezone) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, name, description, instructor, start_time, end_time, capacity, available_slots, timezone, created_at, updated_at")).
		WithArgs(c.Name, c.Description, c.Instructor, c.StartTime, c.EndTime, c.Capacity, c.AvailableSlots, c.Timezone).
		WillReturnRows(classRows(c))

	created, err := repo.Create(context.Background(), repo.DB(), &c)
	require.NoError(t, err)
	require.Equal(t, 1, created.ID)
	require.Equal(t, 15, created.AvailableSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	c := sampleClass()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, instructor, start_time, end_time, capacity, available_slots, timezone, created_at, updated_at FROM fitness_classes WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(classRows(c))

	got, err := repo.GetForUpdate(context.Background(), repo.DB(), 1)
	require.NoError(t, err)
	require.Equal(t, "Morning Yoga", got.Name)

	// missing row maps to ClassNotFound
	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE id = $1 FOR UPDATE")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetForUpdate(context.Background(), repo.DB(), 99)
	require.Equal(t, apperr.KindClassNotFound, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailableForUpdate_FullOrMissingIsClassFull(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND available_slots > 0 FOR UPDATE")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetAvailableForUpdate(context.Background(), repo.DB(), 3)
	require.Equal(t, apperr.KindClassFull, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAvailableSlots(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fitness_classes SET available_slots = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(4, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetAvailableSlots(context.Background(), repo.DB(), 1, 4))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fitness_classes SET available_slots = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(4, 42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetAvailableSlots(context.Background(), repo.DB(), 42, 4)
	require.Equal(t, apperr.KindClassNotFound, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadesBookingsFirst(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE fitness_class_id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fitness_classes WHERE id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Delete(context.Background(), repo.DB(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	c := sampleClass()
	from := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE start_time >= $1 ORDER BY start_time ASC OFFSET $2 LIMIT $3")).
		WithArgs(from, 0, 100).
		WillReturnRows(classRows(c))

	classes, err := repo.List(context.Background(), from, 0, 100)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, "Morning Yoga", classes[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
