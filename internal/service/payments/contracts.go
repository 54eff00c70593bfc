package payments

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	ListConflicts(ctx context.Context, limit, offset uint64) ([]*domain.Payment, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
