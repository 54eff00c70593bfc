package process_payment_notification

import (
	"context"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	GetByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*domain.Payment, error)
	ApplyOutcome(ctx context.Context, id int64, outcome domain.PaymentOutcome) error
	AppendNote(ctx context.Context, id int64, note string) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	LockVehicle(ctx context.Context, vehicleID int64) error
	FindCommittedOverlaps(ctx context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error)
	FindUnpaidHoldsOverlapping(ctx context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error)
	ApplyPayment(ctx context.Context, id int64, fromStatus, toStatus domain.BookingStatus, amountPaid int64, progress domain.PaymentProgress) error
	CancelUnpaidHold(ctx context.Context, id int64, note string) (bool, error)
}

// BlockedDateRepository интерфейс репозитория административных блокировок
type BlockedDateRepository interface {
	FindOverlapping(ctx context.Context, vehicleID int64, period domain.DateRange) ([]*domain.BlockedDate, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// SignatureVerifier проверка подписи уведомления шлюза
type SignatureVerifier interface {
	Verify(version, merchantParameters, signature, order string) error
}

// PaymentNotifier отправляет клиенту письмо о поступившей оплате
// Ошибки отправки обрабатываются внутри и наружу не возвращаются
type PaymentNotifier interface {
	NotifyPayment(ctx context.Context, booking domain.Booking, paymentAmount, previousAmountPaid int64)
}

// Metrics доменные счётчики обработки уведомлений
type Metrics interface {
	RecordNotification(source, outcome string)
	RecordReconciliation(result string)
	RecordSweptBookings(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
