package process_payment_notification

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
	"github.com/m04kA/SMC-PaymentService/pkg/logger"
)

// Публичный тестовый ключ песочницы шлюза
const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func date(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeStore in-memory реализация репозиториев платежей, броней и блокировок
type fakeStore struct {
	mu       sync.Mutex
	payments map[int64]*domain.Payment
	bookings map[int64]*domain.Booking
	blocks   []*domain.BlockedDate

	writes          int
	vehicleLocks    int
	guardQueries    int
	invalidCancels  int
	applyPaymentErr error
	// вызывается после каждого чтения брони по id
	afterGetByID func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments: make(map[int64]*domain.Payment),
		bookings: make(map[int64]*domain.Booking),
	}
}

func (s *fakeStore) addBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.PickupTime == "" {
		b.PickupTime, b.DropoffTime = "10:00", "10:00"
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.bookings[b.ID] = &b
}

func (s *fakeStore) addPayment(p domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status == "" {
		p.Status = domain.PaymentPending
	}
	s.payments[p.ID] = &p
}

func (s *fakeStore) addBlock(b domain.BlockedDate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, &b)
}

func (s *fakeStore) booking(id int64) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func (s *fakeStore) payment(id int64) domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.payments[id]
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeStore) snapshot() (map[int64]domain.Payment, map[int64]domain.Booking, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payments := make(map[int64]domain.Payment, len(s.payments))
	for id, p := range s.payments {
		payments[id] = *p
	}
	bookings := make(map[int64]domain.Booking, len(s.bookings))
	for id, b := range s.bookings {
		bookings[id] = *b
	}
	return payments, bookings, s.writes
}

func (s *fakeStore) restore(payments map[int64]domain.Payment, bookings map[int64]domain.Booking, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range payments {
		p := p
		s.payments[id] = &p
	}
	for id, b := range bookings {
		b := b
		s.bookings[id] = &b
	}
	s.writes = writes
}

// PaymentRepository

func (s *fakeStore) GetByOrderNumberForUpdate(_ context.Context, orderNumber string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.OrderNumber == orderNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

func (s *fakeStore) ApplyOutcome(_ context.Context, id int64, o domain.PaymentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return paymentRepo.ErrPaymentNotFound
	}
	s.writes++
	p.Status = o.Status
	p.ResponseCode = o.ResponseCode
	p.AuthorizationCode = o.AuthorizationCode
	p.TransactionDate = o.TransactionDate
	p.CardCountry = o.CardCountry
	p.CardType = o.CardType
	p.CardBrand = o.CardBrand
	p.Notes = appendNote(p.Notes, o.Note)
	return nil
}

func (s *fakeStore) AppendNote(_ context.Context, id int64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return paymentRepo.ErrPaymentNotFound
	}
	s.writes++
	p.Notes = appendNote(p.Notes, note)
	return nil
}

// BookingRepository

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	b, ok := s.bookings[id]
	var cp domain.Booking
	if ok {
		cp = *b
	}
	hook := s.afterGetByID
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &cp, nil
}

func (s *fakeStore) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeStore) LockVehicle(_ context.Context, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicleLocks++
	return nil
}

func (s *fakeStore) FindCommittedOverlaps(_ context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardQueries++
	return s.filterBookings(vehicleID, excludeID, period, (*domain.Booking).HoldsSlot), nil
}

func (s *fakeStore) FindUnpaidHoldsOverlapping(_ context.Context, vehicleID, excludeID int64, period domain.DateRange) ([]*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterBookings(vehicleID, excludeID, period, (*domain.Booking).IsUnpaidHold), nil
}

func (s *fakeStore) filterBookings(vehicleID, excludeID int64, period domain.DateRange, keep func(*domain.Booking) bool) []*domain.Booking {
	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.VehicleID != vehicleID || b.ID == excludeID || !keep(b) || !b.Period().Overlaps(period) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	return result
}

func (s *fakeStore) ApplyPayment(_ context.Context, id int64, from, to domain.BookingStatus, amountPaid int64, progress domain.PaymentProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyPaymentErr != nil {
		return s.applyPaymentErr
	}
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return bookingRepo.ErrStateChanged
	}
	s.writes++
	b.AmountPaid = amountPaid
	b.PaymentStatus = progress
	b.Status = to
	return nil
}

func (s *fakeStore) CancelUnpaidHold(_ context.Context, id int64, note string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	if !b.IsUnpaidHold() {
		s.invalidCancels++
		return false, nil
	}
	s.writes++
	b.Status = domain.StatusCancelled
	b.Notes = appendNote(b.Notes, note)
	return true, nil
}

// BlockedDateRepository

func (s *fakeStore) FindOverlapping(_ context.Context, vehicleID int64, period domain.DateRange) ([]*domain.BlockedDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardQueries++
	result := make([]*domain.BlockedDate, 0)
	for _, b := range s.blocks {
		if b.VehicleID == vehicleID && b.Period().Overlaps(period) {
			cp := *b
			result = append(result, &cp)
		}
	}
	return result, nil
}

// fakeTxManager сериализует транзакции и откатывает изменения при ошибке
type fakeTxManager struct {
	mu    sync.Mutex
	store *fakeStore
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// как и BeginTx, отменённый контекст не даёт открыть транзакцию
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	payments, bookings, writes := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(payments, bookings, writes)
		return err
	}
	return nil
}

type sentNotification struct {
	booking            domain.Booking
	paymentAmount      int64
	previousAmountPaid int64
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) NotifyPayment(_ context.Context, booking domain.Booking, paymentAmount, previousAmountPaid int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{booking, paymentAmount, previousAmountPaid})
}

func (n *fakeNotifier) calls() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type fakeMetrics struct {
	mu             sync.Mutex
	notifications  map[string]int
	reconciliation map[string]int
	swept          int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{notifications: map[string]int{}, reconciliation: map[string]int{}}
}

func (m *fakeMetrics) RecordNotification(source, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[source+"/"+outcome]++
}

func (m *fakeMetrics) RecordReconciliation(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciliation[result]++
}

func (m *fakeMetrics) RecordSweptBookings(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swept += n
}

// fixture собранный use case поверх in-memory хранилища
type fixture struct {
	store    *fakeStore
	notifier *fakeNotifier
	metrics  *fakeMetrics
	verifier *redsys.Verifier
	uc       *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	verifier, err := redsys.NewVerifier(testSecret)
	require.NoError(t, err)

	store := newFakeStore()
	f := &fixture{
		store:    store,
		notifier: &fakeNotifier{},
		metrics:  newFakeMetrics(),
		verifier: verifier,
	}
	f.uc = NewUseCase(store, store, store, &fakeTxManager{store: store}, verifier, f.notifier, f.metrics, logger.NewNop())
	return f
}

// request формирует подписанное уведомление
func (f *fixture) request(t *testing.T, order, response string, amount int64) *Request {
	t.Helper()

	fields := map[string]string{
		"Ds_Order":             order,
		"Ds_Amount":            strconv.FormatInt(amount, 10),
		"Ds_Currency":          "978",
		"Ds_Date":              "01%2F06%2F2026",
		"Ds_Hour":              "12%3A30",
		"Ds_Card_Country":      "724",
		"Ds_Card_Type":         "D",
		"Ds_AuthorisationCode": "123456",
	}
	if response != "" {
		fields["Ds_Response"] = response
	}

	params, err := redsys.EncodeParameters(fields)
	require.NoError(t, err)

	signature, err := f.verifier.Sign(order, params)
	require.NoError(t, err)

	// шлюз присылает подпись в base64url
	signature = strings.NewReplacer("+", "-", "/", "_").Replace(signature)

	return &Request{
		SignatureVersion:   redsys.SignatureVersionV1,
		MerchantParameters: params,
		Signature:          signature,
		Source:             SourceWebhook,
	}
}

var errDatabaseDown = errors.New("database is down")
