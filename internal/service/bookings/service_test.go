package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-PaymentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-PaymentService/pkg/logger"
)

type MockBookingRepository struct {
	GetByIDFunc          func(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdateFunc func(ctx context.Context, id int64) (*domain.Booking, error)
	LockVehicleFunc      func(ctx context.Context, vehicleID int64) error
	CancelFunc           func(ctx context.Context, id int64, reason string) error
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return m.GetByIDForUpdateFunc(ctx, id)
}

func (m *MockBookingRepository) LockVehicle(ctx context.Context, vehicleID int64) error {
	return m.LockVehicleFunc(ctx, vehicleID)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id int64, reason string) error {
	return m.CancelFunc(ctx, id, reason)
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:            42,
		BookingNumber: "RB-42",
		VehicleID:     7,
		TotalPrice:    100000,
		Status:        domain.StatusPending,
		PaymentStatus: domain.ProgressPending,
	}
}

func TestService_GetByID(t *testing.T) {
	repo := &MockBookingRepository{GetByIDFunc: func(_ context.Context, id int64) (*domain.Booking, error) {
		if id == 42 {
			b := pendingBooking()
			b.AmountPaid = 30000
			return b, nil
		}
		return nil, bookingRepo.ErrBookingNotFound
	}}
	svc := NewService(repo, passthroughTx{}, logger.NewNop())

	resp, err := svc.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "RB-42", resp.BookingNumber)
	assert.Equal(t, int64(70000), resp.AmountRemaining)

	_, err = svc.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_Cancel(t *testing.T) {
	var lockedVehicle int64
	var note string
	state := pendingBooking()

	repo := &MockBookingRepository{
		GetByIDFunc: func(context.Context, int64) (*domain.Booking, error) {
			cp := *state
			return &cp, nil
		},
		GetByIDForUpdateFunc: func(context.Context, int64) (*domain.Booking, error) {
			cp := *state
			return &cp, nil
		},
		LockVehicleFunc: func(_ context.Context, vehicleID int64) error {
			lockedVehicle = vehicleID
			return nil
		},
		CancelFunc: func(_ context.Context, _ int64, reason string) error {
			note = reason
			state.Status = domain.StatusCancelled
			return nil
		},
	}
	svc := NewService(repo, passthroughTx{}, logger.NewNop())

	resp, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: "  refund issued  "})
	require.NoError(t, err)

	assert.Equal(t, int64(7), lockedVehicle)
	assert.Equal(t, "Cancelled by administrator: refund issued", note)
	assert.Equal(t, "cancelled", resp.Status)
}

func TestService_Cancel_Rejections(t *testing.T) {
	completed := pendingBooking()
	completed.Status = domain.StatusCompleted

	repo := &MockBookingRepository{
		GetByIDFunc:          func(context.Context, int64) (*domain.Booking, error) { return completed, nil },
		GetByIDForUpdateFunc: func(context.Context, int64) (*domain.Booking, error) { return completed, nil },
		LockVehicleFunc:      func(context.Context, int64) error { return nil },
		CancelFunc: func(context.Context, int64, string) error {
			t.Fatal("completed booking must not be cancelled")
			return nil
		},
	}
	svc := NewService(repo, passthroughTx{}, logger.NewNop())

	_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: "late"})
	assert.ErrorIs(t, err, ErrCannotCancel)

	_, err = svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: strings.Repeat("x", domain.MaxCancellationReasonLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Cancel_StateChangedConcurrently(t *testing.T) {
	repo := &MockBookingRepository{
		GetByIDFunc:          func(context.Context, int64) (*domain.Booking, error) { return pendingBooking(), nil },
		GetByIDForUpdateFunc: func(context.Context, int64) (*domain.Booking, error) { return pendingBooking(), nil },
		LockVehicleFunc:      func(context.Context, int64) error { return nil },
		CancelFunc:           func(context.Context, int64, string) error { return bookingRepo.ErrStateChanged },
	}
	svc := NewService(repo, passthroughTx{}, logger.NewNop())

	_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: "duplicate"})
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestService_Cancel_RepositoryError(t *testing.T) {
	repo := &MockBookingRepository{
		GetByIDFunc: func(context.Context, int64) (*domain.Booking, error) { return nil, errors.New("conn refused") },
	}
	svc := NewService(repo, passthroughTx{}, logger.NewNop())

	_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{CancellationReason: "x"})
	assert.ErrorIs(t, err, ErrInternal)
}
