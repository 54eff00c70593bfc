package domain

import "time"

// BookingStatus жизненный цикл бронирования
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// PaymentProgress степень оплаты бронирования, не зависит от жизненного цикла
type PaymentProgress string

const (
	ProgressPending  PaymentProgress = "pending"
	ProgressPartial  PaymentProgress = "partial"
	ProgressPaid     PaymentProgress = "paid"
	ProgressRefunded PaymentProgress = "refunded"
)

// Booking бронирование автомобиля на период
// Все суммы - в минимальных единицах валюты (центах)
type Booking struct {
	ID            int64
	BookingNumber string
	VehicleID     int64
	VehicleName   string // из vehicles, только для чтения

	// Снимок данных клиента на момент бронирования
	CustomerName  string
	CustomerEmail string
	CustomerPhone *string

	PickupDate      time.Time
	DropoffDate     time.Time
	PickupTime      string // HH:MM
	DropoffTime     string // HH:MM
	PickupLocation  *string
	DropoffLocation *string

	TotalPrice    int64
	AmountPaid    int64
	Status        BookingStatus
	PaymentStatus PaymentProgress
	Notes         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period возвращает закрытый интервал дат бронирования
func (b *Booking) Period() DateRange {
	return DateRange{Start: b.PickupDate, End: b.DropoffDate}
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// CanBeCancelled отменить можно любое бронирование, кроме завершённого и уже отменённого
func (b *Booking) CanBeCancelled() bool {
	return b.Status != StatusCompleted && b.Status != StatusCancelled
}

// HoldsSlot true, если бронирование защищено инвариантом непересечения:
// не отменено и по нему уже есть оплата
func (b *Booking) HoldsSlot() bool {
	return !b.IsCancelled() &&
		(b.PaymentStatus == ProgressPartial || b.PaymentStatus == ProgressPaid)
}

// IsUnpaidHold true для предварительной брони без оплаты, которую может вытеснить оплаченная
func (b *Booking) IsUnpaidHold() bool {
	return b.Status == StatusPending && b.PaymentStatus == ProgressPending
}

// ProgressFor вычисляет статус оплаты по сумме оплаченного и полной стоимости
func ProgressFor(amountPaid, totalPrice int64) PaymentProgress {
	switch {
	case amountPaid <= 0:
		return ProgressPending
	case amountPaid >= totalPrice:
		return ProgressPaid
	default:
		return ProgressPartial
	}
}
