package verify_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-PaymentService/internal/api/handlers"
	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMalformedRequest   = "некорректные параметры платежа"
	msgInvalidSignature   = "неверная подпись платежа"
	msgOrderNotFound      = "платёж не найден"
)

type Handler struct {
	useCase UseCase
	logger  Logger
}

func NewHandler(useCase UseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/redsys/verify
// Резервный путь, если серверное уведомление задержалось: обработка идемпотентна
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/redsys/verify - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, process_payment_notification.ErrInvalidSignature):
			h.logger.Warn("POST /payments/redsys/verify - Invalid signature from %s", r.RemoteAddr)
			handlers.RespondBadRequest(w, msgInvalidSignature)

		case errors.Is(err, process_payment_notification.ErrMalformedRequest):
			handlers.RespondBadRequest(w, msgMalformedRequest)

		default:
			h.logger.Error("POST /payments/redsys/verify - Failed to verify payment: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if result.Disposition == process_payment_notification.DispositionUnknownOrder {
		h.logger.Warn("POST /payments/redsys/verify - Order not found: order=%s", result.OrderNumber)
		handlers.RespondNotFound(w, msgOrderNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, fromResult(result))
}
