package process_payment_notification

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// sweepUnpaidHolds отменяет неоплаченные предварительные брони того же автомобиля,
// пересекающиеся с только что подтверждённой. Брони с любой оплатой не трогаются
func (uc *UseCase) sweepUnpaidHolds(ctx context.Context, confirmed *domain.Booking) (int, error) {
	period := confirmed.Period()

	holds, err := uc.bookingRepo.FindUnpaidHoldsOverlapping(ctx, confirmed.VehicleID, confirmed.ID, period)
	if err != nil {
		return 0, fmt.Errorf("%w: find unpaid holds vehicle_id=%d: %v", ErrInternal, confirmed.VehicleID, err)
	}

	note := fmt.Sprintf("%s Dates %s were taken by paid booking %s",
		domain.AutoCancelNoteMarker, period, confirmed.BookingNumber)

	cancelled := 0
	for _, hold := range holds {
		if hold.ID == confirmed.ID || !hold.IsUnpaidHold() || !hold.Period().Overlaps(period) {
			continue
		}

		ok, err := uc.bookingRepo.CancelUnpaidHold(ctx, hold.ID, note)
		if err != nil {
			return 0, fmt.Errorf("%w: cancel unpaid hold booking_id=%d: %v", ErrInternal, hold.ID, err)
		}
		if !ok {
			uc.logger.Info("ProcessPaymentNotification: hold %s changed before cancellation, skipped", hold.BookingNumber)
			continue
		}

		cancelled++
		uc.logger.Info("ProcessPaymentNotification: auto-cancelled booking %s (%s) in favor of %s",
			hold.BookingNumber, hold.Period(), confirmed.BookingNumber)
	}

	return cancelled, nil
}
