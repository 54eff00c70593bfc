package models

import (
	"time"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// ListConflictsRequest пагинация очереди ручного разбора
type ListConflictsRequest struct {
	Limit  uint64
	Offset uint64
}

// PaymentResponse платёж в ответе API, сумма в центах
type PaymentResponse struct {
	ID                int64      `json:"id"`
	OrderNumber       string     `json:"orderNumber"`
	BookingID         int64      `json:"bookingId"`
	Amount            int64      `json:"amount"`
	Status            string     `json:"status"`
	ResponseCode      *string    `json:"responseCode,omitempty"`
	AuthorizationCode *string    `json:"authorizationCode,omitempty"`
	TransactionDate   *time.Time `json:"transactionDate,omitempty"`
	CardCountry       *string    `json:"cardCountry,omitempty"`
	CardType          *string    `json:"cardType,omitempty"`
	CardBrand         *string    `json:"cardBrand,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// PaymentListResponse список платежей
type PaymentListResponse struct {
	Payments []*PaymentResponse `json:"payments"`
	Limit    uint64             `json:"limit"`
	Offset   uint64             `json:"offset"`
}

func FromDomainPayment(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                p.ID,
		OrderNumber:       p.OrderNumber,
		BookingID:         p.BookingID,
		Amount:            p.Amount,
		Status:            string(p.Status),
		ResponseCode:      p.ResponseCode,
		AuthorizationCode: p.AuthorizationCode,
		TransactionDate:   p.TransactionDate,
		CardCountry:       p.CardCountry,
		CardType:          p.CardType,
		CardBrand:         p.CardBrand,
		Notes:             p.Notes,
		UpdatedAt:         p.UpdatedAt,
	}
}
