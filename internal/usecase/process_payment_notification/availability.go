package process_payment_notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// findConflicts проверяет, свободен ли автомобиль на период брони
// Возвращает описания найденных конфликтов: административные блокировки
// и другие брони, уже удерживающие пересекающийся период
func (uc *UseCase) findConflicts(ctx context.Context, booking *domain.Booking) ([]string, error) {
	period := booking.Period()
	conflicts := make([]string, 0)

	blocks, err := uc.blockedDateRepo.FindOverlapping(ctx, booking.VehicleID, period)
	if err != nil {
		return nil, fmt.Errorf("%w: find blocked dates vehicle_id=%d: %v", ErrInternal, booking.VehicleID, err)
	}
	for _, block := range blocks {
		if !block.Period().Overlaps(period) {
			continue
		}
		reason := "no reason given"
		if block.Reason != nil && *block.Reason != "" {
			reason = *block.Reason
		}
		conflicts = append(conflicts, fmt.Sprintf("vehicle blocked %s (%s)", block.Period(), reason))
	}

	others, err := uc.bookingRepo.FindCommittedOverlaps(ctx, booking.VehicleID, booking.ID, period)
	if err != nil {
		return nil, fmt.Errorf("%w: find overlapping bookings vehicle_id=%d: %v", ErrInternal, booking.VehicleID, err)
	}
	for _, other := range others {
		if other.ID == booking.ID || !other.HoldsSlot() || !other.Period().Overlaps(period) {
			continue
		}
		conflicts = append(conflicts, fmt.Sprintf("booking %s already holds %s", other.BookingNumber, other.Period()))
	}

	return conflicts, nil
}

func conflictNote(payment *domain.Payment, booking *domain.Booking, reasons []string) string {
	return fmt.Sprintf("%s Payment %s of %s received but booking %s was not confirmed: %s. Refund or vehicle swap required",
		domain.ConflictNoteMarker,
		payment.OrderNumber,
		domain.FormatAmount(payment.Amount),
		booking.BookingNumber,
		strings.Join(reasons, "; "),
	)
}
