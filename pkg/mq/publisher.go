package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublisherClosed публикация после Close
var ErrPublisherClosed = errors.New("publisher is closed")

type closer interface {
	IsClosed() bool
	Close() error
}

type channel interface {
	closer
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// session соединение и канал, живущие вместе
type session struct {
	conn   closer
	ch     channel
	closed <-chan *amqp.Error
}

func (s *session) alive() bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	return !s.conn.IsClosed() && !s.ch.IsClosed()
}

func (s *session) close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}

func dialAMQP(url string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &session{
		conn:   conn,
		ch:     ch,
		closed: conn.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

// Publisher публикует JSON-сообщения в topic exchange RabbitMQ
//
// Разорванное брокером соединение восстанавливается при следующей публикации
type Publisher struct {
	url      string
	exchange string
	dial     func(url string) (*session, error)

	mu       sync.Mutex
	sess     *session
	isClosed bool
}

// NewPublisher подключается к брокеру и объявляет exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	return newPublisher(url, exchange, dialAMQP)
}

func newPublisher(url, exchange string, dial func(string) (*session, error)) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, dial: dial}
	if _, err := p.current(); err != nil {
		return nil, err
	}
	return p, nil
}

// current возвращает живую сессию, при необходимости переподключаясь
func (p *Publisher) current() (*session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		return nil, ErrPublisherClosed
	}
	if p.sess != nil && p.sess.alive() {
		return p.sess, nil
	}
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
	}

	s, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	if err := s.ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p.sess = s
	return s, nil
}

// drop закрывает сессию, если её ещё не заменили
func (p *Publisher) drop(s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == s {
		s.close()
		p.sess = nil
	}
}

// PublishJSON сериализует v и публикует с ключом маршрутизации key
// Публикация в разорванное соединение повторяется один раз после переподключения
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		s, err := p.current()
		if err != nil {
			if lastErr != nil {
				return fmt.Errorf("%v; reconnect: %w", lastErr, err)
			}
			return err
		}

		err = s.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
		if err == nil {
			return nil
		}
		if !errors.Is(err, amqp.ErrClosed) && s.alive() {
			return err
		}
		p.drop(s)
		lastErr = err
	}
	return lastErr
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.isClosed = true
	if p.sess == nil {
		return nil
	}
	_ = p.sess.ch.Close()
	err := p.sess.conn.Close()
	p.sess = nil
	return err
}
