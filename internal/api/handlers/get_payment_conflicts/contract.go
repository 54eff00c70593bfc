package get_payment_conflicts

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/service/payments/models"
)

type PaymentService interface {
	ListConflicts(ctx context.Context, req *models.ListConflictsRequest) (*models.PaymentListResponse, error)
}

type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
