package process_payment_notification

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// nextStatus статус брони после зачёта оплаты
// pending -> confirmed; подтверждённые, выполняющиеся и завершённые брони статус не меняют.
// Отменённой брони зачесть оплату нельзя
func nextStatus(current domain.BookingStatus) (domain.BookingStatus, bool) {
	switch current {
	case domain.StatusPending:
		return domain.StatusConfirmed, true
	case domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCompleted:
		return current, true
	default:
		return "", false
	}
}

// creditPayment зачитывает сумму платежа в бронь и пересчитывает статус оплаты
// Запись условная по текущему статусу брони
func (uc *UseCase) creditPayment(ctx context.Context, booking *domain.Booking, amount int64) (*domain.Booking, error) {
	toStatus, ok := nextStatus(booking.Status)
	if !ok {
		return nil, fmt.Errorf("%w: booking id=%d in status %s cannot accept payments", ErrInternal, booking.ID, booking.Status)
	}

	amountPaid := booking.AmountPaid + amount
	progress := domain.ProgressFor(amountPaid, booking.TotalPrice)

	if err := uc.bookingRepo.ApplyPayment(ctx, booking.ID, booking.Status, toStatus, amountPaid, progress); err != nil {
		return nil, fmt.Errorf("%w: apply payment booking_id=%d: %v", ErrInternal, booking.ID, err)
	}

	updated := *booking
	updated.AmountPaid = amountPaid
	updated.PaymentStatus = progress
	updated.Status = toStatus

	return &updated, nil
}
