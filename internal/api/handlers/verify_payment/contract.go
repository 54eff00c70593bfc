package verify_payment

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
)

type UseCase interface {
	Execute(ctx context.Context, req *process_payment_notification.Request) (*process_payment_notification.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
