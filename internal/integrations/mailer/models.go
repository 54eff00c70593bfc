package mailer

import "github.com/m04kA/SMC-PaymentService/internal/domain"

// PaymentConfirmationRequest тело запроса на отправку письма об оплате
type PaymentConfirmationRequest struct {
	To       string                     `json:"to"`
	Template string                     `json:"template"` // first_payment | final_payment
	Data     domain.PaymentConfirmation `json:"data"`
}

// SendResponse ответ почтового сервиса
type SendResponse struct {
	MessageID string `json:"message_id"`
}

// ErrorResponse модель ошибки от почтового сервиса
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
