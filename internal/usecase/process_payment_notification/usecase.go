package process_payment_notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
)

// UseCase обработка уведомления платёжного шлюза о результате транзакции
//
// Этапы: проверка подписи -> запись результата в платёж -> (при успехе) проверка доступности,
// подтверждение брони и отмена конкурирующих неоплаченных броней -> письмо клиенту.
// После успешной проверки подписи ошибки наружу не возвращаются: шлюз получает подтверждение,
// а сбои логируются для ручной сверки
type UseCase struct {
	paymentRepo     PaymentRepository
	bookingRepo     BookingRepository
	blockedDateRepo BlockedDateRepository
	txManager       TransactionManager
	verifier        SignatureVerifier
	notifier        PaymentNotifier
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	paymentRepo PaymentRepository,
	bookingRepo BookingRepository,
	blockedDateRepo BlockedDateRepository,
	txManager TransactionManager,
	verifier SignatureVerifier,
	notifier PaymentNotifier,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		paymentRepo:     paymentRepo,
		bookingRepo:     bookingRepo,
		blockedDateRepo: blockedDateRepo,
		txManager:       txManager,
		verifier:        verifier,
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute обрабатывает одно уведомление
// Ошибка возвращается только для некорректного запроса (ErrMalformedRequest)
// и неверной подписи (ErrInvalidSignature), в обоих случаях БД не изменяется
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Result, error) {
	// Обрыв соединения клиентом не должен прерывать сверку между этапами:
	// оплата уже записана, бронь должна быть подтверждена или помечена для ручной сверки
	ctx = context.WithoutCancel(ctx)

	// 1. Структурная проверка и декодирование параметров
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ProcessPaymentNotification: %v", err)
		uc.metrics.RecordReconciliation("rejected")
		return nil, err
	}

	notification, err := redsys.DecodeParameters(req.MerchantParameters)
	if err != nil {
		uc.logger.Warn("ProcessPaymentNotification: source=%s failed to decode parameters: %v", req.Source, err)
		uc.metrics.RecordReconciliation("rejected")
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	// 2. Подпись. Ключ выводится из номера заказа, поэтому проверка идёт после декодирования
	if err := uc.verifier.Verify(req.SignatureVersion, req.MerchantParameters, req.Signature, notification.Order); err != nil {
		uc.logger.Warn("ProcessPaymentNotification: SECURITY signature verification failed source=%s order=%q: %v",
			req.Source, notification.Order, err)
		uc.metrics.RecordReconciliation("rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// 3. Классификация
	outcome := redsys.Classify(notification.Response)
	uc.metrics.RecordNotification(string(req.Source), string(outcome))
	uc.logger.Info("ProcessPaymentNotification: source=%s order=%s response=%q outcome=%s amount=%d",
		req.Source, notification.Order, notification.Response, outcome, notification.Amount)

	result := &Result{
		OrderNumber:  notification.Order,
		Outcome:      outcome,
		Notification: notification,
	}
	defer func() {
		uc.metrics.RecordReconciliation(string(result.Disposition))
	}()

	// 4. Запись результата в платёж
	ledger, err := uc.applyLedger(ctx, notification, outcome)
	if err != nil {
		uc.logger.Error("ProcessPaymentNotification: failed to record outcome order=%s, manual reconciliation required: %v",
			notification.Order, err)
		result.Disposition = DispositionFailed
		return result, nil
	}

	result.Payment = ledger.payment
	if ledger.payment == nil {
		uc.logger.Warn("ProcessPaymentNotification: order=%s not found, nothing to reconcile", notification.Order)
		result.Disposition = ledger.disposition
		return result, nil
	}

	// 5. Бронь обрабатывается только при первом зачёте успешной оплаты
	if !ledger.credited {
		uc.logger.Info("ProcessPaymentNotification: order=%s payment_id=%d disposition=%s",
			notification.Order, ledger.payment.ID, ledger.disposition)
		result.Disposition = ledger.disposition
		result.Booking = uc.readBooking(ctx, ledger.payment.BookingID)
		return result, nil
	}

	reconciled, err := uc.reconcileBooking(ctx, ledger.payment)
	if err != nil {
		uc.logger.Error("ProcessPaymentNotification: booking update failed after payment was recorded, manual reconciliation required: payment_id=%d booking_id=%d order=%s: %v",
			ledger.payment.ID, ledger.payment.BookingID, notification.Order, err)
		uc.flagForReview(ctx, ledger.payment)
		result.Disposition = DispositionFailed
		result.Booking = uc.readBooking(ctx, ledger.payment.BookingID)
		return result, nil
	}

	result.Disposition = reconciled.disposition
	result.Booking = reconciled.booking
	result.SweptCount = reconciled.swept
	if reconciled.swept > 0 {
		uc.metrics.RecordSweptBookings(reconciled.swept)
	}

	// 6. Письмо клиенту уходит после фиксации всех изменений
	if reconciled.disposition == DispositionConfirmed || reconciled.disposition == DispositionApplied {
		uc.notifier.NotifyPayment(ctx, *reconciled.booking, ledger.payment.Amount, reconciled.previousAmountPaid)
	}

	uc.logger.Info("ProcessPaymentNotification: order=%s booking=%s disposition=%s status=%s payment_status=%s paid=%d/%d",
		notification.Order, reconciled.booking.BookingNumber, reconciled.disposition,
		reconciled.booking.Status, reconciled.booking.PaymentStatus,
		reconciled.booking.AmountPaid, reconciled.booking.TotalPrice)

	return result, nil
}

// reconcileResult итог обработки брони после зачёта оплаты
type reconcileResult struct {
	disposition        Disposition
	booking            *domain.Booking
	previousAmountPaid int64
	swept              int
}

// reconcileBooking проверяет доступность, зачитывает оплату в бронь и отменяет конкурирующие
// неоплаченные брони. Всё выполняется в одной транзакции под advisory-блокировкой автомобиля
func (uc *UseCase) reconcileBooking(ctx context.Context, payment *domain.Payment) (*reconcileResult, error) {
	// vehicle_id нужен до блокировки строки брони: все обработчики берут блокировки
	// в одном порядке (автомобиль, затем бронь)
	snapshot, err := uc.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: get booking id=%d: %v", ErrInternal, payment.BookingID, err)
	}

	res := &reconcileResult{}

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.LockVehicle(txCtx, snapshot.VehicleID); err != nil {
			return fmt.Errorf("%w: lock vehicle id=%d: %v", ErrInternal, snapshot.VehicleID, err)
		}

		booking, err := uc.bookingRepo.GetByIDForUpdate(txCtx, payment.BookingID)
		if err != nil {
			return fmt.Errorf("%w: lock booking id=%d: %v", ErrInternal, payment.BookingID, err)
		}
		if booking.VehicleID != snapshot.VehicleID {
			return fmt.Errorf("%w: booking id=%d moved to vehicle %d concurrently", ErrInternal, booking.ID, booking.VehicleID)
		}

		res.booking = booking
		res.previousAmountPaid = booking.AmountPaid

		switch booking.Status {
		case domain.StatusCancelled:
			return uc.markConflict(txCtx, res, payment, booking, []string{"booking is cancelled"})

		case domain.StatusPending:
			conflicts, err := uc.findConflicts(txCtx, booking)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return uc.markConflict(txCtx, res, payment, booking, conflicts)
			}

			confirmed, err := uc.creditPayment(txCtx, booking, payment.Amount)
			if err != nil {
				return err
			}

			swept, err := uc.sweepUnpaidHolds(txCtx, confirmed)
			if err != nil {
				return err
			}

			res.booking = confirmed
			res.swept = swept
			res.disposition = DispositionConfirmed
			return nil

		default:
			// Бронь уже выиграла период, повторная проверка доступности не нужна
			updated, err := uc.creditPayment(txCtx, booking, payment.Amount)
			if err != nil {
				return err
			}

			res.booking = updated
			res.disposition = DispositionApplied
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// markConflict помечает платёж для ручного разбора, бронь при этом не изменяется
func (uc *UseCase) markConflict(ctx context.Context, res *reconcileResult, payment *domain.Payment, booking *domain.Booking, reasons []string) error {
	note := conflictNote(payment, booking, reasons)
	if err := uc.paymentRepo.AppendNote(ctx, payment.ID, note); err != nil {
		return fmt.Errorf("%w: annotate payment id=%d: %v", ErrInternal, payment.ID, err)
	}

	payment.Notes = appendNote(payment.Notes, note)
	res.disposition = DispositionConflict

	uc.logger.Warn("ProcessPaymentNotification: availability conflict, manual action required: payment_id=%d booking=%s: %s",
		payment.ID, booking.BookingNumber, note)
	return nil
}

// flagForReview ставит на платёж пометку конфликта, чтобы он попал в очередь ручной сверки
func (uc *UseCase) flagForReview(ctx context.Context, payment *domain.Payment) {
	note := fmt.Sprintf("%s Payment %s was recorded but booking update failed, manual reconciliation required",
		domain.ConflictNoteMarker, payment.OrderNumber)

	if err := uc.paymentRepo.AppendNote(ctx, payment.ID, note); err != nil {
		uc.logger.Error("ProcessPaymentNotification: failed to flag payment_id=%d for review: %v", payment.ID, err)
		return
	}
	payment.Notes = appendNote(payment.Notes, note)
}

// readBooking читает текущее состояние брони для ответа, ошибки только логируются
func (uc *UseCase) readBooking(ctx context.Context, bookingID int64) *domain.Booking {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		uc.logger.Warn("ProcessPaymentNotification: failed to read booking id=%d: %v", bookingID, err)
		return nil
	}
	return booking
}

// IsClientError true для ошибок, при которых шлюзу отвечают 400
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedRequest) || errors.Is(err, ErrInvalidSignature)
}
