package notifications

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// DefaultMaxInFlight предел одновременных фоновых отправок по умолчанию
const DefaultMaxInFlight = 32

// PaymentNotifier синхронная отправка письма об оплате
type PaymentNotifier interface {
	NotifyPayment(ctx context.Context, booking domain.Booking, paymentAmount, previousAmountPaid int64)
}

// Dispatcher отправляет письма в фоне, чтобы подтверждение шлюзу не ждало почтовый транспорт
//
// Число одновременных отправок ограничено. При заполненном лимите письмо отправляется
// синхронно в вызывающей горутине, так что письма не теряются
type Dispatcher struct {
	notifier PaymentNotifier
	logger   Logger
	slots    chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher создает диспетчер поверх синхронного сервиса уведомлений
func NewDispatcher(notifier PaymentNotifier, logger Logger, maxInFlight int) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		slots:    make(chan struct{}, maxInFlight),
	}
}

// NotifyPayment ставит отправку в фон и сразу возвращает управление
func (d *Dispatcher) NotifyPayment(ctx context.Context, booking domain.Booking, paymentAmount, previousAmountPaid int64) {
	ctx = context.WithoutCancel(ctx)

	select {
	case d.slots <- struct{}{}:
	default:
		d.logger.Warn("NotifyPayment: %d sends in flight, sending email for booking %s inline",
			cap(d.slots), booking.BookingNumber)
		d.notifier.NotifyPayment(ctx, booking, paymentAmount, previousAmountPaid)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.slots }()
		d.notifier.NotifyPayment(ctx, booking, paymentAmount, previousAmountPaid)
	}()
}

// Wait дожидается завершения фоновых отправок или отмены ctx
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
