package notifications

import (
	"context"
	"time"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/pkg/ptr"
)

// DefaultSendTimeout ограничение на одну отправку письма
const DefaultSendTimeout = 10 * time.Second

// Service отправляет клиенту письмо о зачтённой оплате
// Отправка выполняется после фиксации изменений в БД, её сбой только логируется
type Service struct {
	sender  Sender
	metrics Metrics
	logger  Logger
	timeout time.Duration
}

// NewService создает сервис уведомлений
func NewService(sender Sender, metrics Metrics, logger Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Service{
		sender:  sender,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
	}
}

// NotifyPayment выбирает шаблон по этапу оплаты и отправляет снимок брони
func (s *Service) NotifyPayment(ctx context.Context, booking domain.Booking, paymentAmount, previousAmountPaid int64) {
	snapshot := BuildConfirmation(booking, paymentAmount, previousAmountPaid)

	if booking.CustomerEmail == "" {
		s.logger.Warn("NotifyPayment: booking %s has no customer email, %s notification skipped",
			booking.BookingNumber, snapshot.Milestone)
		s.metrics.RecordEmailFailure(string(snapshot.Milestone))
		return
	}

	// Письмо не должно зависеть от отмены входящего запроса
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.sender.SendPaymentConfirmation(sendCtx, booking.CustomerEmail, snapshot); err != nil {
		s.logger.Error("NotifyPayment: failed to send %s email for booking %s to %s: %v",
			snapshot.Milestone, booking.BookingNumber, booking.CustomerEmail, err)
		s.metrics.RecordEmailFailure(string(snapshot.Milestone))
		return
	}

	s.logger.Info("NotifyPayment: %s email for booking %s handed off", snapshot.Milestone, booking.BookingNumber)
}

// MilestoneFor первая оплата, если до неё по брони ничего не было оплачено
func MilestoneFor(previousAmountPaid int64) domain.PaymentMilestone {
	if previousAmountPaid == 0 {
		return domain.MilestoneFirstPayment
	}
	return domain.MilestoneFinalPayment
}

// BuildConfirmation формирует неизменяемый снимок данных для письма
func BuildConfirmation(booking domain.Booking, paymentAmount, previousAmountPaid int64) domain.PaymentConfirmation {
	remaining := booking.TotalPrice - booking.AmountPaid
	if remaining < 0 {
		remaining = 0
	}

	return domain.PaymentConfirmation{
		Milestone:       MilestoneFor(previousAmountPaid),
		BookingNumber:   booking.BookingNumber,
		CustomerName:    booking.CustomerName,
		CustomerEmail:   booking.CustomerEmail,
		VehicleName:     booking.VehicleName,
		PickupDate:      booking.PickupDate.Format(domain.DateFormat),
		DropoffDate:     booking.DropoffDate.Format(domain.DateFormat),
		PickupTime:      booking.PickupTime,
		DropoffTime:     booking.DropoffTime,
		PickupLocation:  ptr.Value(booking.PickupLocation),
		DropoffLocation: ptr.Value(booking.DropoffLocation),
		TotalPrice:      booking.TotalPrice,
		PaymentAmount:   paymentAmount,
		AmountPaid:      booking.AmountPaid,
		AmountRemaining: remaining,
	}
}
