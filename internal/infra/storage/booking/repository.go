package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-PaymentService/pkg/psqlbuilder"
)

// bookingColumns колонки бронирования (таблица bookings с алиасом b, vehicles - v)
var bookingColumns = []string{
	"b.id",
	"b.booking_number",
	"b.vehicle_id",
	"COALESCE(v.name, '')",
	"b.customer_name",
	"b.customer_email",
	"b.customer_phone",
	"b.pickup_date",
	"b.dropoff_date",
	"b.pickup_time",
	"b.dropoff_time",
	"b.pickup_location",
	"b.dropoff_location",
	"b.total_price",
	"b.amount_paid",
	"b.status",
	"b.payment_status",
	"b.notes",
	"b.created_at",
	"b.updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

func selectBookings() squirrel.SelectBuilder {
	return psqlbuilder.Select(bookingColumns...).
		From("bookings b").
		LeftJoin("vehicles v ON v.id = b.vehicle_id")
}

// GetByID получает бронирование по ID без блокировки
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, false, "GetByID")
}

// GetByIDForUpdate получает бронирование с блокировкой строки (SELECT ... FOR UPDATE)
// Имеет смысл только внутри транзакции
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, true, "GetByIDForUpdate")
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool, op string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectBookings().Where(squirrel.Eq{"b.id": id})
	if forUpdate {
		// vehicles присоединяется через LEFT JOIN, блокируем только строку брони
		builder = builder.Suffix("FOR UPDATE OF b")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
	}

	return booking, nil
}

// LockVehicle берёт транзакционную advisory-блокировку по автомобилю
// Сериализует проверку доступности, подтверждение и отмену конкурирующих броней одного автомобиля.
// Блокировка снимается при завершении транзакции, вне транзакции вызов бесполезен
func (r *Repository) LockVehicle(ctx context.Context, vehicleID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", vehicleID); err != nil {
		return fmt.Errorf("%w: LockVehicle - vehicle_id=%d: %v", ErrExecQuery, vehicleID, err)
	}

	return nil
}

// FindCommittedOverlaps находит другие бронирования автомобиля, которые уже удерживают период:
// не отменены и частично или полностью оплачены
func (r *Repository) FindCommittedOverlaps(ctx context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	progress := make([]string, len(domain.SlotHoldingProgress))
	for i, p := range domain.SlotHoldingProgress {
		progress[i] = string(p)
	}

	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.vehicle_id": vehicleID}).
		Where(squirrel.NotEq{"b.id": excludeID}).
		Where(squirrel.NotEq{"b.status": string(domain.StatusCancelled)}).
		Where(squirrel.Eq{"b.payment_status": progress}).
		Where(overlapsPeriod(period)).
		OrderBy("b.pickup_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindCommittedOverlaps - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindCommittedOverlaps - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// FindUnpaidHoldsOverlapping находит предварительные брони без оплаты (pending/pending),
// пересекающиеся с периодом. Строки блокируются для последующей отмены
func (r *Repository) FindUnpaidHoldsOverlapping(ctx context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectBookings().
		Where(squirrel.Eq{"b.vehicle_id": vehicleID}).
		Where(squirrel.NotEq{"b.id": excludeID}).
		Where(squirrel.Eq{"b.status": string(domain.StatusPending)}).
		Where(squirrel.Eq{"b.payment_status": string(domain.ProgressPending)}).
		Where(overlapsPeriod(period)).
		OrderBy("b.created_at ASC")

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF b")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindUnpaidHoldsOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindUnpaidHoldsOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ApplyPayment записывает новую сумму оплаты, статус оплаты и статус жизненного цикла
// Обновление условное: применяется, только если текущий статус равен fromStatus
func (r *Repository) ApplyPayment(
	ctx context.Context,
	id int64,
	fromStatus domain.BookingStatus,
	toStatus domain.BookingStatus,
	amountPaid int64,
	progress domain.PaymentProgress,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("amount_paid", amountPaid).
		Set("payment_status", string(progress)).
		Set("status", string(toStatus)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": string(fromStatus)}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: ApplyPayment - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "ApplyPayment")
}

// CancelUnpaidHold отменяет бронь, только если она всё ещё pending/pending
// Возвращает false, если бронь успела измениться (оплачена или отменена)
func (r *Repository) CancelUnpaidHold(ctx context.Context, id int64, note string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", string(domain.StatusCancelled)).
		Set("notes", appendNote(note)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": string(domain.StatusPending)}).
		Where(squirrel.Eq{"payment_status": string(domain.ProgressPending)}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: CancelUnpaidHold - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: CancelUnpaidHold - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: CancelUnpaidHold - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// Cancel отменяет бронирование администратором с указанием причины
// Завершённые и уже отменённые брони не изменяются (ErrStateChanged)
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", string(domain.StatusCancelled)).
		Set("notes", appendNote(reason)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": []string{string(domain.StatusCompleted), string(domain.StatusCancelled)}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "Cancel")
}

func (r *Repository) execExpectingRow(ctx context.Context, executor DBExecutor, query string, args []interface{}, op string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrStateChanged
	}

	return nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var booking domain.Booking
	var status, paymentStatus string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.BookingNumber,
		&booking.VehicleID,
		&booking.VehicleName,
		&booking.CustomerName,
		&booking.CustomerEmail,
		&booking.CustomerPhone,
		&booking.PickupDate,
		&booking.DropoffDate,
		&booking.PickupTime,
		&booking.DropoffTime,
		&booking.PickupLocation,
		&booking.DropoffLocation,
		&booking.TotalPrice,
		&booking.AmountPaid,
		&status,
		&paymentStatus,
		&booking.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	booking.PaymentStatus = domain.PaymentProgress(paymentStatus)
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// overlapsPeriod условие пересечения закрытых интервалов дат
func overlapsPeriod(period domain.DateRange) squirrel.Sqlizer {
	return squirrel.And{
		squirrel.LtOrEq{"b.pickup_date": period.End},
		squirrel.GtOrEq{"b.dropoff_date": period.Start},
	}
}

// appendNote дописывает строку к заметкам, не затирая предыдущие
func appendNote(note string) squirrel.Sqlizer {
	return squirrel.Expr("CONCAT_WS(E'\\n', NULLIF(notes, ''), ?::text)", note)
}
