package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-PaymentService/internal/service/bookings/models"
)

// Service административные операции с бронированиями (ручная сверка конфликтов)
type Service struct {
	bookingRepo BookingRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking), nil
}

// Cancel отменяет бронирование администратором
// Отменить можно любую бронь, кроме завершённой и уже отменённой.
// Выполняется под блокировкой автомобиля, как и подтверждение оплаты
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d", bookingID)

	reason := strings.TrimSpace(req.CancellationReason)
	if reason == "" || utf8.RuneCountInString(reason) > domain.MaxCancellationReasonLength {
		s.logger.Warn("Cancel: invalid cancellation reason for booking id=%d", bookingID)
		return nil, fmt.Errorf("%w: cancellation reason must be 1..%d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	// vehicle_id нужен до транзакции, чтобы взять блокировки в том же порядке, что и обработчик оплат
	snapshot, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Cancel: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	var cancelled *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.LockVehicle(txCtx, snapshot.VehicleID); err != nil {
			return fmt.Errorf("%w: Cancel - lock vehicle: %v", ErrInternal, err)
		}

		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
			return ErrCannotCancel
		}

		note := fmt.Sprintf("Cancelled by administrator: %s", reason)
		if err := s.bookingRepo.Cancel(txCtx, bookingID, note); err != nil {
			if errors.Is(err, bookingRepo.ErrStateChanged) {
				return ErrCannotCancel
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelled
		cancelled = booking
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrBookingNotFound) && !errors.Is(err, ErrCannotCancel) {
			s.logger.Error("Cancel: failed to cancel booking id=%d: %v", bookingID, err)
		}
		return nil, err
	}

	// Свежее состояние с заметкой об отмене
	fresh, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		s.logger.Warn("Cancel: failed to re-read booking id=%d: %v", bookingID, err)
		fresh = cancelled
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d (%s), payment_status=%s",
		bookingID, fresh.BookingNumber, fresh.PaymentStatus)
	return models.FromDomainBooking(fresh), nil
}
