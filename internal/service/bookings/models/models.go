package models

import (
	"time"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// Request модели

// CancelBookingRequest запрос администратора на отмену бронирования
type CancelBookingRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// Response модели

// BookingResponse ответ с данными бронирования
// Суммы в центах
type BookingResponse struct {
	ID              int64   `json:"id"`
	BookingNumber   string  `json:"bookingNumber"`
	VehicleID       int64   `json:"vehicleId"`
	VehicleName     string  `json:"vehicleName"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerPhone   *string `json:"customerPhone,omitempty"`
	PickupDate      string  `json:"pickupDate"`  // "2026-07-01"
	DropoffDate     string  `json:"dropoffDate"` // "2026-07-07"
	PickupTime      string  `json:"pickupTime"`  // "10:00"
	DropoffTime     string  `json:"dropoffTime"`
	PickupLocation  *string `json:"pickupLocation,omitempty"`
	DropoffLocation *string `json:"dropoffLocation,omitempty"`
	TotalPrice      int64   `json:"totalPrice"`
	AmountPaid      int64   `json:"amountPaid"`
	AmountRemaining int64   `json:"amountRemaining"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"paymentStatus"`
	Notes           *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainBooking конвертирует domain.Booking в BookingResponse
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	remaining := b.TotalPrice - b.AmountPaid
	if remaining < 0 {
		remaining = 0
	}

	return &BookingResponse{
		ID:              b.ID,
		BookingNumber:   b.BookingNumber,
		VehicleID:       b.VehicleID,
		VehicleName:     b.VehicleName,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CustomerPhone:   b.CustomerPhone,
		PickupDate:      b.PickupDate.Format(domain.DateFormat),
		DropoffDate:     b.DropoffDate.Format(domain.DateFormat),
		PickupTime:      b.PickupTime,
		DropoffTime:     b.DropoffTime,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		TotalPrice:      b.TotalPrice,
		AmountPaid:      b.AmountPaid,
		AmountRemaining: remaining,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
