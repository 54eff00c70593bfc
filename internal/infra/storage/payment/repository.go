package payment

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

// DBExecutor интерфейс для выполнения запросов (*sql.DB, транзакция из контекста)
type DBExecutor = dbmetrics.DBExecutor

var paymentColumns = []string{
	"id",
	"order_number",
	"booking_id",
	"amount",
	"status",
	"response_code",
	"authorization_code",
	"transaction_date",
	"card_country",
	"card_type",
	"card_brand",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий платежей
// Платежи создаёт внешний поток инициации оплаты, здесь они только читаются и обновляются
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByOrderNumberForUpdate получает платёж по номеру заказа (точное совпадение с учётом регистра)
// Внутри транзакции строка блокируется, что сериализует повторные доставки одного уведомления
func (r *Repository) GetByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"order_number": orderNumber})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByOrderNumberForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	payment, err := scanPayment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByOrderNumberForUpdate - scan payment: %v", ErrScanRow, err)
	}

	return payment, nil
}

// ApplyOutcome записывает результат транзакции в платёж
// Заметка с результатом дописывается к существующим
func (r *Repository) ApplyOutcome(ctx context.Context, id int64, outcome domain.PaymentOutcome) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("payments").
		Set("status", string(outcome.Status)).
		Set("response_code", outcome.ResponseCode).
		Set("authorization_code", outcome.AuthorizationCode).
		Set("transaction_date", outcome.TransactionDate).
		Set("card_country", outcome.CardCountry).
		Set("card_type", outcome.CardType).
		Set("card_brand", outcome.CardBrand).
		Set("notes", appendNote(outcome.Note)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: ApplyOutcome - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "ApplyOutcome")
}

// AppendNote дописывает заметку к платежу (пометки о конфликтах)
func (r *Repository) AppendNote(ctx context.Context, id int64, note string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("payments").
		Set("notes", appendNote(note)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AppendNote - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "AppendNote")
}

// ListConflicts возвращает проведённые платежи с пометкой о конфликте доступности
// Это очередь ручного разбора: деньги получены, бронь не подтверждена
func (r *Repository) ListConflicts(ctx context.Context, limit, offset uint64) ([]*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"status": string(domain.PaymentCompleted)}).
		Where(squirrel.Like{"notes": "%" + domain.ConflictNoteMarker + "%"}).
		OrderBy("updated_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListConflicts - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListConflicts - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListConflicts - scan row: %v", ErrScanRow, err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListConflicts - rows error: %v", ErrScanRow, err)
	}

	return payments, nil
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
		return ErrPaymentNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var p domain.Payment
	var status string
	var transactionDate, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.OrderNumber,
		&p.BookingID,
		&p.Amount,
		&status,
		&p.ResponseCode,
		&p.AuthorizationCode,
		&transactionDate,
		&p.CardCountry,
		&p.CardType,
		&p.CardBrand,
		&p.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PaymentStatus(status)
	if transactionDate.Valid {
		t := transactionDate.Time
		p.TransactionDate = &t
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

func appendNote(note string) squirrel.Sqlizer {
	return squirrel.Expr("CONCAT_WS(E'\\n', NULLIF(notes, ''), ?::text)", note)
}
