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

func setupService(t *testing.T) (Service, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	svc := NewService(sqlxDB, NewRepository(sqlxDB))

	return svc, mock, func() { sqlxDB.Close() }
}

func TestServiceCreate(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	stored := sampleClass()
	stored.StartTime = time.Date(2025, 8, 19, 1, 30, 0, 0, time.UTC)
	stored.EndTime = time.Date(2025, 8, 19, 2, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fitness_classes")).
		WithArgs("Morning Yoga", nil, "Priya Sharma", sqlmock.AnyArg(), sqlmock.AnyArg(), 15, 15, "Asia/Kolkata").
		WillReturnRows(classRows(stored))

	created, err := svc.Create(context.Background(), CreateClassRequest{
		Name:       "Morning Yoga",
		Instructor: "Priya Sharma",
		StartTime:  "2025-08-19T07:00:00",
		EndTime:    "2025-08-19T08:00:00",
		Capacity:   15,
	}, "Asia/Kolkata")
	require.NoError(t, err)

	// Response times are localized to the display timezone.
	require.Equal(t, "Asia/Kolkata", created.Timezone)
	require.Equal(t, 7, created.StartTime.Hour())
	require.True(t, created.StartTime.Equal(stored.StartTime))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreate_Validation(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name: "X", Instructor: "Y",
		StartTime: "2025-08-19T07:00:00", EndTime: "2025-08-19T08:00:00",
		Capacity: 5,
	}, "Invalid/Zone")
	require.Equal(t, apperr.KindInvalidTimezone, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), CreateClassRequest{
		Name: "X", Instructor: "Y",
		StartTime: "2025-08-19T08:00:00", EndTime: "2025-08-19T07:00:00",
		Capacity: 5,
	}, "Asia/Kolkata")
	require.Equal(t, apperr.KindInvalidTimeRange, apperr.KindOf(err))

	// Neither validation failure may reach the store.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpdate_CapacityBelowSlotsLeavesRowUnchanged(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	current := sampleClass()
	current.AvailableSlots = 10

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(classRows(current))
	mock.ExpectRollback()

	capacity := 5
	_, err := svc.Update(context.Background(), 1, UpdateClassRequest{Capacity: &capacity}, "Asia/Kolkata")
	require.Equal(t, apperr.KindInvalidTimeRange, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpdate_PartialFields(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	current := sampleClass()
	updated := current
	updated.Name = "Evening Yoga"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(classRows(current))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE fitness_classes SET name = $1")).
		WithArgs("Evening Yoga", current.Description, current.Instructor, current.StartTime, current.EndTime,
			current.Capacity, current.AvailableSlots, current.Timezone, 1).
		WillReturnRows(classRows(updated))
	mock.ExpectCommit()

	name := "Evening Yoga"
	got, err := svc.Update(context.Background(), 1, UpdateClassRequest{Name: &name}, "Asia/Kolkata")
	require.NoError(t, err)
	require.Equal(t, "Evening Yoga", got.Name)
	require.Equal(t, current.Capacity, got.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceDelete(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(classRows(sampleClass()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE fitness_class_id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fitness_classes WHERE id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceList_InvalidTimezoneSkipsStore(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	_, err := svc.List(context.Background(), "Invalid/Zone", 0, 100)
	require.Equal(t, apperr.KindInvalidTimezone, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceList_LocalizesTimes(t *testing.T) {
	svc, mock, close := setupService(t)
	defer close()

	c := sampleClass()
	c.StartTime = time.Date(2025, 8, 19, 1, 30, 0, 0, time.UTC)
	c.EndTime = time.Date(2025, 8, 19, 2, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM fitness_classes WHERE start_time >= $1 ORDER BY start_time ASC OFFSET $2 LIMIT $3")).
		WithArgs(sqlmock.AnyArg(), 0, 100).
		WillReturnRows(classRows(c))

	classes, err := svc.List(context.Background(), "Asia/Kolkata", 0, 100)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, 7, classes[0].StartTime.Hour())
	require.True(t, classes[0].StartTime.Equal(c.StartTime))
	require.NoError(t, mock.ExpectationsWereMet())
}
