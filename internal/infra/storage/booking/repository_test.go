package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/pkg/dbmetrics"
)

var bookingRowColumns = []string{
	"id", "booking_number", "vehicle_id", "vehicle_name", "customer_name", "customer_email",
	"customer_phone", "pickup_date", "dropoff_date", "pickup_time", "dropoff_time",
	"pickup_location", "dropoff_location", "total_price", "amount_paid", "status",
	"payment_status", "notes", "created_at", "updated_at",
}

func date(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func addBookingRow(rows *sqlmock.Rows, id int64, status domain.BookingStatus, progress domain.PaymentProgress) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "RB-1001", int64(7), "Fiat 500", "Ana Garcia", "ana@example.com",
		nil, date("2026-07-01"), date("2026-07-05"), "10:00", "18:00",
		"Airport", nil, int64(50000), int64(0), string(status),
		string(progress), nil, now, now,
	)
}

func TestRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	rows := addBookingRow(sqlmock.NewRows(bookingRowColumns), 42, domain.StatusPending, domain.ProgressPending)
	mock.ExpectQuery(`SELECT .+ FROM bookings b LEFT JOIN vehicles v ON v.id = b.vehicle_id WHERE b.id = \$1$`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	booking, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), booking.ID)
	assert.Equal(t, "Fiat 500", booking.VehicleName)
	assert.Nil(t, booking.CustomerPhone)
	require.NotNil(t, booking.PickupLocation)
	assert.Equal(t, "Airport", *booking.PickupLocation)
	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Equal(t, domain.ProgressPending, booking.PaymentStatus)
	assert.Equal(t, date("2026-07-05"), booking.DropoffDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM bookings b`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRepository_GetByIDForUpdate_LocksOnlyBookingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	rows := addBookingRow(sqlmock.NewRows(bookingRowColumns), 42, domain.StatusConfirmed, domain.ProgressPartial)
	mock.ExpectQuery(`WHERE b.id = \$1 FOR UPDATE OF b$`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	booking, err := repo.GetByIDForUpdate(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LockVehicle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LockVehicle(context.Background(), 7))

	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(8)).
		WillReturnError(errors.New("connection reset"))

	assert.ErrorIs(t, repo.LockVehicle(context.Background(), 8), ErrExecQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindCommittedOverlaps(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	period := domain.DateRange{Start: date("2026-07-03"), End: date("2026-07-08")}

	rows := addBookingRow(sqlmock.NewRows(bookingRowColumns), 5, domain.StatusConfirmed, domain.ProgressPaid)
	mock.ExpectQuery(`WHERE b.vehicle_id = \$1 AND b.id <> \$2 AND b.status <> \$3 AND b.payment_status IN \(\$4,\$5\) AND \(b.pickup_date <= \$6 AND b.dropoff_date >= \$7\) ORDER BY b.pickup_date ASC`).
		WithArgs(int64(7), int64(42), "cancelled", "partial", "paid", period.End, period.Start).
		WillReturnRows(rows)

	overlaps, err := repo.FindCommittedOverlaps(context.Background(), 7, 42, period)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, int64(5), overlaps[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindUnpaidHoldsOverlapping_LocksInsideTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	period := domain.DateRange{Start: date("2026-07-01"), End: date("2026-07-05")}

	mock.ExpectBegin()
	rows := addBookingRow(sqlmock.NewRows(bookingRowColumns), 9, domain.StatusPending, domain.ProgressPending)
	mock.ExpectQuery(`b.status = \$3 AND b.payment_status = \$4 .+ ORDER BY b.created_at ASC FOR UPDATE OF b$`).
		WithArgs(int64(7), int64(42), "pending", "pending", period.End, period.Start).
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), tx)

	holds, err := repo.FindUnpaidHoldsOverlapping(ctx, 7, 42, period)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.True(t, holds[0].IsUnpaidHold())

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ApplyPayment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE bookings SET amount_paid = \$1, payment_status = \$2, status = \$3, updated_at = NOW\(\) WHERE id = \$4 AND status = \$5`).
		WithArgs(int64(15000), "partial", "confirmed", int64(42), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyPayment(context.Background(), 42, domain.StatusPending, domain.StatusConfirmed, 15000, domain.ProgressPartial)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ApplyPayment_StateChanged(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyPayment(context.Background(), 42, domain.StatusPending, domain.StatusConfirmed, 15000, domain.ProgressPartial)
	assert.ErrorIs(t, err, ErrStateChanged)
}

func TestRepository_CancelUnpaidHold(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	note := "[AUTO-CANCELLED] dates taken by RB-1001"

	mock.ExpectExec(`UPDATE bookings SET status = \$1, notes = CONCAT_WS\(E'\\n', NULLIF\(notes, ''\), \$2::text\), updated_at = NOW\(\) WHERE id = \$3 AND status = \$4 AND payment_status = \$5`).
		WithArgs("cancelled", note, int64(9), "pending", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	cancelled, err := repo.CancelUnpaidHold(context.Background(), 9, note)
	require.NoError(t, err)
	assert.True(t, cancelled)

	// бронь успела измениться
	cancelled, err = repo.CancelUnpaidHold(context.Background(), 9, note)
	require.NoError(t, err)
	assert.False(t, cancelled)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Cancel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(`WHERE id = \$3 AND status NOT IN \(\$4,\$5\)`).
		WithArgs("cancelled", "customer request", int64(42), "completed", "cancelled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Cancel(context.Background(), 42, "customer request"))
	assert.ErrorIs(t, repo.Cancel(context.Background(), 42, "again"), ErrStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
