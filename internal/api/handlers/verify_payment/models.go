package verify_payment

import (
	"strings"

	"github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
)

// VerifyPaymentRequest параметры, с которыми шлюз вернул клиента на страницу успеха
type VerifyPaymentRequest struct {
	SignatureVersion   string `json:"Ds_SignatureVersion"`
	MerchantParameters string `json:"Ds_MerchantParameters"`
	Signature          string `json:"Ds_Signature"`
}

func (r *VerifyPaymentRequest) ToUseCaseRequest() *process_payment_notification.Request {
	return &process_payment_notification.Request{
		SignatureVersion:   strings.TrimSpace(r.SignatureVersion),
		MerchantParameters: strings.TrimSpace(r.MerchantParameters),
		Signature:          strings.TrimSpace(r.Signature),
		Source:             process_payment_notification.SourceReturnURL,
	}
}

// VerifyPaymentResponse состояние платежа и брони для страницы успеха
// Суммы в центах
type VerifyPaymentResponse struct {
	OrderNumber     string `json:"orderNumber"`
	Outcome         string `json:"outcome"`
	Disposition     string `json:"disposition"`
	PaymentStatus   string `json:"paymentStatus"`
	PaymentAmount   int64  `json:"paymentAmount"`
	BookingNumber   string `json:"bookingNumber,omitempty"`
	BookingStatus   string `json:"bookingStatus,omitempty"`
	PaymentProgress string `json:"paymentProgress,omitempty"`
	TotalPrice      int64  `json:"totalPrice,omitempty"`
	AmountPaid      int64  `json:"amountPaid,omitempty"`
	AmountRemaining int64  `json:"amountRemaining,omitempty"`
}

func fromResult(res *process_payment_notification.Result) *VerifyPaymentResponse {
	resp := &VerifyPaymentResponse{
		OrderNumber: res.OrderNumber,
		Outcome:     string(res.Outcome),
		Disposition: string(res.Disposition),
	}

	if res.Payment != nil {
		resp.PaymentStatus = string(res.Payment.Status)
		resp.PaymentAmount = res.Payment.Amount
	}

	if b := res.Booking; b != nil {
		resp.BookingNumber = b.BookingNumber
		resp.BookingStatus = string(b.Status)
		resp.PaymentProgress = string(b.PaymentStatus)
		resp.TotalPrice = b.TotalPrice
		resp.AmountPaid = b.AmountPaid
		if remaining := b.TotalPrice - b.AmountPaid; remaining > 0 {
			resp.AmountRemaining = remaining
		}
	}

	return resp
}
