package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shaiso/tetractl/internal/audit"
)

// Handler обрабатывает одно событие. Ошибка прекращает подписку.
type Handler func(ctx context.Context, event audit.Event) error

// Subscriber читает события аудита из временной очереди.
type Subscriber struct {
	ch     Channel
	logger *slog.Logger
}

// NewSubscriber создаёт Subscriber.
func NewSubscriber(ch Channel, logger *slog.Logger) *Subscriber {
	return &Subscriber{ch: ch, logger: logger}
}

// Tail привязывает эксклюзивную очередь к exchange аудита по bindingKey
// и передаёт события в handler, пока ctx не отменён.
//
// Очередь auto-delete: после выхода она исчезает, пропущенные события
// не копятся.
func (s *Subscriber) Tail(ctx context.Context, bindingKey string, handler Handler) error {
	if bindingKey == "" {
		bindingKey = RoutingAll
	}

	q, err := s.ch.QueueDeclare(
		"",    // name, генерирует сервер
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := s.ch.QueueBind(q.Name, bindingKey, string(ExchangeAudit), false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", q.Name, ExchangeAudit, err)
	}

	deliveries, err := s.ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	s.logger.Debug("tailing audit events", "queue", q.Name, "binding", bindingKey)

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			var event audit.Event
			if err := json.Unmarshal(raw.Body, &event); err != nil {
				s.logger.Warn("skipping malformed audit message", "message_id", raw.MessageId, "error", err)
				continue
			}
			if err := handler(ctx, event); err != nil {
				return err
			}
		}
	}
}
