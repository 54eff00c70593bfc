package mailqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-PaymentService/internal/domain"
)

// RoutingKey ключ маршрутизации писем об оплате
const RoutingKey = "email.payment_confirmation"

// ErrPublish возвращается, когда сообщение не удалось опубликовать
var ErrPublish = errors.New("mailqueue: failed to publish message")

// Publisher публикация JSON-сообщений в брокер (pkg/mq)
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Message сообщение для почтового воркера
type Message struct {
	To       string                     `json:"to"`
	Template string                     `json:"template"`
	Data     domain.PaymentConfirmation `json:"data"`
}

// Sender отправляет письма через очередь: письмо уходит асинхронно почтовым воркером
type Sender struct {
	publisher Publisher
}

func NewSender(publisher Publisher) *Sender {
	return &Sender{publisher: publisher}
}

// SendPaymentConfirmation публикует задачу на отправку письма об оплате
func (s *Sender) SendPaymentConfirmation(ctx context.Context, recipient string, snapshot domain.PaymentConfirmation) error {
	msg := Message{
		To:       recipient,
		Template: string(snapshot.Milestone),
		Data:     snapshot,
	}

	if err := s.publisher.PublishJSON(ctx, RoutingKey, msg); err != nil {
		return fmt.Errorf("%w: booking=%s: %v", ErrPublish, snapshot.BookingNumber, err)
	}
	return nil
}
