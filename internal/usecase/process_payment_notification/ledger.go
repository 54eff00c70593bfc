package process_payment_notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
	"github.com/m04kA/SMC-PaymentService/pkg/ptr"
)

// ledgerResult итог записи результата транзакции в платёж
type ledgerResult struct {
	payment     *domain.Payment
	disposition Disposition
	// credited true, если этим уведомлением платёж впервые переведён в completed
	// и его сумму нужно зачесть в бронь
	credited bool
}

// applyLedger записывает результат транзакции в платёж в отдельной транзакции
//
// Идемпотентность построена на переходе статуса: уже проведённый платёж (completed)
// не изменяется ни повторным успехом, ни поздним отказом, а повтор уже записанного
// отказа с тем же кодом ответа считается дублем
func (uc *UseCase) applyLedger(ctx context.Context, n *redsys.Notification, outcome redsys.Outcome) (*ledgerResult, error) {
	res := &ledgerResult{}

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		payment, err := uc.paymentRepo.GetByOrderNumberForUpdate(txCtx, n.Order)
		if err != nil {
			if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
				res.disposition = DispositionUnknownOrder
				return nil
			}
			return fmt.Errorf("%w: get payment order=%s: %v", ErrInternal, n.Order, err)
		}
		res.payment = payment

		if n.Amount != 0 && n.Amount != payment.Amount {
			uc.logger.Warn("ProcessPaymentNotification: amount mismatch order=%s notified=%d stored=%d, using stored amount",
				n.Order, n.Amount, payment.Amount)
		}

		if payment.IsCompleted() {
			if outcome == redsys.OutcomeAuthorized {
				res.disposition = DispositionDuplicate
			} else {
				res.disposition = DispositionIgnored
			}
			return nil
		}

		// повторная доставка того же отказа или ошибки не переписывает платёж и не дублирует заметку
		if payment.Status == paymentStatusFor(outcome) && ptr.Value(payment.ResponseCode) == n.Response {
			res.disposition = DispositionDuplicate
			return nil
		}

		paymentOutcome := buildPaymentOutcome(n, outcome)
		if err := uc.paymentRepo.ApplyOutcome(txCtx, payment.ID, paymentOutcome); err != nil {
			return fmt.Errorf("%w: apply outcome payment_id=%d: %v", ErrInternal, payment.ID, err)
		}
		applyToPayment(payment, paymentOutcome)

		if outcome == redsys.OutcomeAuthorized {
			res.credited = true
		} else {
			res.disposition = DispositionRecorded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// paymentStatusFor authorized -> completed, refused -> refused, unknown -> error
func paymentStatusFor(outcome redsys.Outcome) domain.PaymentStatus {
	switch outcome {
	case redsys.OutcomeAuthorized:
		return domain.PaymentCompleted
	case redsys.OutcomeRefused:
		return domain.PaymentRefused
	default:
		return domain.PaymentError
	}
}

func buildPaymentOutcome(n *redsys.Notification, outcome redsys.Outcome) domain.PaymentOutcome {
	return domain.PaymentOutcome{
		Status:            paymentStatusFor(outcome),
		ResponseCode:      optional(n.Response),
		AuthorizationCode: optional(n.AuthorisationCode),
		TransactionDate:   n.TransactionDate,
		CardCountry:       optional(n.CardCountry),
		CardType:          optional(n.CardType),
		CardBrand:         optional(n.CardBrand),
		Note:              redsys.Describe(n.Response),
	}
}

// applyToPayment отражает записанный результат в прочитанной копии платежа
func applyToPayment(p *domain.Payment, o domain.PaymentOutcome) {
	p.Status = o.Status
	p.ResponseCode = o.ResponseCode
	p.AuthorizationCode = o.AuthorizationCode
	p.TransactionDate = o.TransactionDate
	p.CardCountry = o.CardCountry
	p.CardType = o.CardType
	p.CardBrand = o.CardBrand
	p.Notes = appendNote(p.Notes, o.Note)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func appendNote(notes *string, note string) *string {
	if notes == nil || *notes == "" {
		return &note
	}
	joined := *notes + "\n" + note
	return &joined
}
