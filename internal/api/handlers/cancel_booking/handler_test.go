package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PaymentService/internal/service/bookings"
	"github.com/m04kA/SMC-PaymentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-PaymentService/pkg/logger"
)

type MockBookingService struct {
	CancelFunc func(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error)
	lastReq    *models.CancelBookingRequest
}

func (m *MockBookingService) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	m.lastReq = req
	return m.CancelFunc(ctx, bookingID, req)
}

func serve(svc BookingService, target, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/admin/bookings/{bookingId}/cancel", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Cancel(t *testing.T) {
	svc := &MockBookingService{
		CancelFunc: func(_ context.Context, id int64, _ *models.CancelBookingRequest) (*models.BookingResponse, error) {
			return &models.BookingResponse{ID: id, Status: "cancelled"}, nil
		},
	}

	rec := serve(svc, "/api/v1/admin/bookings/42/cancel", `{"cancellationReason":"vehicle damaged"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "vehicle damaged", svc.lastReq.CancellationReason)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		err        error
		wantStatus int
	}{
		{"bad id", "/api/v1/admin/bookings/x/cancel", `{}`, nil, http.StatusBadRequest},
		{"bad body", "/api/v1/admin/bookings/1/cancel", `{`, nil, http.StatusBadRequest},
		{"missing reason", "/api/v1/admin/bookings/1/cancel", `{}`, fmt.Errorf("%w: reason required", bookings.ErrInvalidInput), http.StatusBadRequest},
		{"not found", "/api/v1/admin/bookings/1/cancel", `{"cancellationReason":"x"}`, bookings.ErrBookingNotFound, http.StatusNotFound},
		{"cannot cancel", "/api/v1/admin/bookings/1/cancel", `{"cancellationReason":"x"}`, bookings.ErrCannotCancel, http.StatusConflict},
		{"internal", "/api/v1/admin/bookings/1/cancel", `{"cancellationReason":"x"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockBookingService{
				CancelFunc: func(_ context.Context, _ int64, _ *models.CancelBookingRequest) (*models.BookingResponse, error) {
					return nil, tt.err
				},
			}

			rec := serve(svc, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
