package redsys_notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
	"github.com/m04kA/SMC-PaymentService/pkg/logger"
)

type MockUseCase struct {
	ExecuteFunc func(ctx context.Context, req *process_payment_notification.Request) (*process_payment_notification.Result, error)
	calls       []*process_payment_notification.Request
}

func (m *MockUseCase) Execute(ctx context.Context, req *process_payment_notification.Request) (*process_payment_notification.Result, error) {
	m.calls = append(m.calls, req)
	return m.ExecuteFunc(ctx, req)
}

func postForm(t *testing.T, h *Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/redsys/notification", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func notificationForm() url.Values {
	return url.Values{
		fieldSignatureVersion:   {redsys.SignatureVersionV1},
		fieldMerchantParameters: {"eyJEc19PcmRlciI6IjEyMzQifQ=="},
		fieldSignature:          {"c2lnbmF0dXJl+/"},
	}
}

func TestHandler_Acknowledges(t *testing.T) {
	uc := &MockUseCase{
		ExecuteFunc: func(_ context.Context, _ *process_payment_notification.Request) (*process_payment_notification.Result, error) {
			return &process_payment_notification.Result{
				OrderNumber: "1234",
				Outcome:     redsys.OutcomeAuthorized,
				Disposition: process_payment_notification.DispositionConfirmed,
			}, nil
		},
	}

	rec := postForm(t, NewHandler(uc, logger.NewNop()), notificationForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Len(t, uc.calls, 1)
	got := uc.calls[0]
	assert.Equal(t, process_payment_notification.SourceWebhook, got.Source)
	assert.Equal(t, redsys.SignatureVersionV1, got.SignatureVersion)
	assert.Equal(t, "eyJEc19PcmRlciI6IjEyMzQifQ==", got.MerchantParameters)
	assert.Equal(t, "c2lnbmF0dXJl+/", got.Signature)
}

func TestHandler_RestoresUnescapedPlus(t *testing.T) {
	uc := &MockUseCase{
		ExecuteFunc: func(_ context.Context, _ *process_payment_notification.Request) (*process_payment_notification.Result, error) {
			return &process_payment_notification.Result{Disposition: process_payment_notification.DispositionDuplicate}, nil
		},
	}

	// '+' без экранирования превращается в пробел при разборе формы
	body := "Ds_SignatureVersion=HMAC_SHA256_V1&Ds_MerchantParameters=ab+cd&Ds_Signature=x+y%3D"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/redsys/notification", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, uc.calls, 1)
	assert.Equal(t, "ab+cd", uc.calls[0].MerchantParameters)
	assert.Equal(t, "x+y=", uc.calls[0].Signature)
}

func TestHandler_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid signature", process_payment_notification.ErrInvalidSignature},
		{"malformed", process_payment_notification.ErrMalformedRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &MockUseCase{
				ExecuteFunc: func(_ context.Context, _ *process_payment_notification.Request) (*process_payment_notification.Result, error) {
					return nil, tt.err
				},
			}

			rec := postForm(t, NewHandler(uc, logger.NewNop()), notificationForm())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":400`)
		})
	}
}

func TestHandler_UnexpectedErrorStillAcknowledged(t *testing.T) {
	uc := &MockUseCase{
		ExecuteFunc: func(_ context.Context, _ *process_payment_notification.Request) (*process_payment_notification.Result, error) {
			return nil, errors.New("boom")
		},
	}

	rec := postForm(t, NewHandler(uc, logger.NewNop()), notificationForm())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_PanicAcknowledged(t *testing.T) {
	uc := &MockUseCase{
		ExecuteFunc: func(_ context.Context, _ *process_payment_notification.Request) (*process_payment_notification.Result, error) {
			panic("nil map")
		},
	}

	rec := postForm(t, NewHandler(uc, logger.NewNop()), notificationForm())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_InvalidForm(t *testing.T) {
	uc := &MockUseCase{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/redsys/notification", strings.NewReader("%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.calls)
}
