package redsys_notification

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-PaymentService/internal/api/handlers"
	"github.com/m04kA/SMC-PaymentService/internal/api/middleware"
	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
)

const (
	msgInvalidForm      = "некорректное тело уведомления"
	msgMalformedRequest = "некорректные параметры уведомления"
	msgInvalidSignature = "неверная подпись уведомления"

	maxFormBytes = 64 << 10
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

// Handle POST /api/v1/payments/redsys/notification
//
// 400 только для структурно некорректного уведомления или неверной подписи.
// Во всех остальных случаях шлюз получает 200, чтобы не провоцировать повторные доставки
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("POST /payments/redsys/notification - panic recovered, acknowledging: %v", p)
			handlers.RespondJSON(w, http.StatusOK, ack)
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("POST /payments/redsys/notification - Invalid form: %v", err)
		handlers.RespondBadRequest(w, msgInvalidForm)
		return
	}

	requestID := middleware.RequestIDFromContext(r.Context())

	result, err := h.useCase.Execute(r.Context(), requestFromForm(r))
	if err != nil {
		switch {
		case errors.Is(err, process_payment_notification.ErrInvalidSignature):
			h.logger.Warn("POST /payments/redsys/notification - Rejected, invalid signature from %s: request_id=%s", r.RemoteAddr, requestID)
			handlers.RespondBadRequest(w, msgInvalidSignature)

		case errors.Is(err, process_payment_notification.ErrMalformedRequest):
			h.logger.Warn("POST /payments/redsys/notification - Rejected, malformed notification: request_id=%s, error=%v", requestID, err)
			handlers.RespondBadRequest(w, msgMalformedRequest)

		default:
			h.logger.Error("POST /payments/redsys/notification - Unexpected error, acknowledging: request_id=%s, error=%v", requestID, err)
			handlers.RespondJSON(w, http.StatusOK, ack)
		}
		return
	}

	h.logger.Info("POST /payments/redsys/notification - Acknowledged: request_id=%s, order=%s, outcome=%s, disposition=%s",
		requestID, result.OrderNumber, result.Outcome, result.Disposition)
	handlers.RespondJSON(w, http.StatusOK, ack)
}
