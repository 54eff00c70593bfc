package payments

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/service/payments/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Service чтение платежей для администратора
type Service struct {
	paymentRepo PaymentRepository
	logger      Logger
}

func NewService(paymentRepo PaymentRepository, logger Logger) *Service {
	return &Service{paymentRepo: paymentRepo, logger: logger}
}

// ListConflicts возвращает проведённые платежи, по которым бронь не подтверждена:
// нужен возврат средств или замена автомобиля
func (s *Service) ListConflicts(ctx context.Context, req *models.ListConflictsRequest) (*models.PaymentListResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidInput, MaxLimit)
	}

	payments, err := s.paymentRepo.ListConflicts(ctx, limit, req.Offset)
	if err != nil {
		s.logger.Error("ListConflicts: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListConflicts - repository error: %v", ErrInternal, err)
	}

	resp := &models.PaymentListResponse{
		Payments: make([]*models.PaymentResponse, 0, len(payments)),
		Limit:    limit,
		Offset:   req.Offset,
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, models.FromDomainPayment(p))
	}

	s.logger.Info("ListConflicts: %d payments awaiting manual reconciliation (offset=%d)", len(resp.Payments), req.Offset)
	return resp, nil
}
