package get_payment_conflicts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-PaymentService/internal/api/handlers"
	"github.com/m04kA/SMC-PaymentService/internal/service/payments"
	"github.com/m04kA/SMC-PaymentService/internal/service/payments/models"
)

const (
	msgInvalidLimit  = "некорректный параметр limit"
	msgInvalidOffset = "некорректный параметр offset"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/admin/payments/conflicts?limit=50&offset=0
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &models.ListConflictsRequest{}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		req.Limit = limit
	}

	if v := query.Get("offset"); v != "" {
		offset, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidOffset)
			return
		}
		req.Offset = offset
	}

	resp, err := h.service.ListConflicts(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidInput):
			h.logger.Warn("GET /admin/payments/conflicts - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidLimit)

		default:
			h.logger.Error("GET /admin/payments/conflicts - Failed to list conflicts: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
