package notifications

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// LogSender пишет письмо в лог вместо отправки (локальный запуск, notifier.transport = "log")
type LogSender struct {
	logger Logger
}

func NewLogSender(logger Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPaymentConfirmation(_ context.Context, recipient string, snapshot domain.PaymentConfirmation) error {
	s.logger.Info("LogSender: %s email to %s: booking=%s vehicle=%q %s..%s paid=%d/%d remaining=%d",
		snapshot.Milestone, recipient, snapshot.BookingNumber, snapshot.VehicleName,
		snapshot.PickupDate, snapshot.DropoffDate, snapshot.AmountPaid, snapshot.TotalPrice, snapshot.AmountRemaining)
	return nil
}
