package notifications

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// Sender транспорт писем: HTTP-клиент почтового сервиса, очередь или лог
type Sender interface {
	SendPaymentConfirmation(ctx context.Context, recipient string, snapshot domain.PaymentConfirmation) error
}

// Metrics счётчик неудачных отправок
type Metrics interface {
	RecordEmailFailure(template string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
