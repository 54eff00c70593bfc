package domain

import (
	"strings"
	"time"
)

// PaymentStatus статус попытки оплаты
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefused   PaymentStatus = "refused"
	PaymentError     PaymentStatus = "error"
)

// Payment попытка списания суммы по бронированию
// OrderNumber - уникальный ключ корреляции с платёжным шлюзом
type Payment struct {
	ID                int64
	OrderNumber       string
	BookingID         int64
	Amount            int64
	Status            PaymentStatus
	ResponseCode      *string
	AuthorizationCode *string
	TransactionDate   *time.Time
	CardCountry       *string
	CardType          *string
	CardBrand         *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCompleted returns true if the payment has already been captured
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentCompleted
}

// HasConflict true, если к платежу приложена пометка о конфликте доступности
func (p *Payment) HasConflict() bool {
	return p.Notes != nil && strings.Contains(*p.Notes, ConflictNoteMarker)
}

// PaymentOutcome результат транзакции, записываемый в платёж
type PaymentOutcome struct {
	Status            PaymentStatus
	ResponseCode      *string
	AuthorizationCode *string
	TransactionDate   *time.Time
	CardCountry       *string
	CardType          *string
	CardBrand         *string
	Note              string
}
