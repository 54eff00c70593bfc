package blockeddate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-PaymentService/pkg/psqlbuilder"
)

var (
	ErrBuildQuery = errors.New("blockeddate.repository: failed to build query")
	ErrExecQuery  = errors.New("blockeddate.repository: failed to execute query")
	ErrScanRow    = errors.New("blockeddate.repository: failed to scan row")
)

// Repository репозиторий административных блокировок (только чтение)
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindOverlapping возвращает блокировки автомобиля, пересекающиеся с периодом
func (r *Repository) FindOverlapping(ctx context.Context, vehicleID int64, period domain.DateRange) ([]*domain.BlockedDate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "vehicle_id", "start_date", "end_date", "reason").
		From("blocked_dates").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.LtOrEq{"start_date": period.End}).
		Where(squirrel.GtOrEq{"end_date": period.Start}).
		OrderBy("start_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedDate, 0)
	for rows.Next() {
		var b domain.BlockedDate
		if err := rows.Scan(&b.ID, &b.VehicleID, &b.StartDate, &b.EndDate, &b.Reason); err != nil {
			return nil, fmt.Errorf("%w: FindOverlapping - scan row: %v", ErrScanRow, err)
		}
		blocks = append(blocks, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - rows error: %v", ErrScanRow, err)
	}

	return blocks, nil
}
