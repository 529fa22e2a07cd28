package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/tetractl/internal/audit"
)

// AuditPublisher публикует события аудита. Реализует audit.Sink.
type AuditPublisher struct {
	ch     Channel
	logger *slog.Logger
}

// NewAuditPublisher создаёт AuditPublisher.
func NewAuditPublisher(ch Channel, logger *slog.Logger) *AuditPublisher {
	return &AuditPublisher{ch: ch, logger: logger}
}

var _ audit.Sink = (*AuditPublisher)(nil)

// Record публикует событие с routing key = action.
func (p *AuditPublisher) Record(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(
		ctx,
		string(ExchangeAudit), // exchange
		event.Action,          // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Time,
			Type:         event.Outcome,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", ExchangeAudit, event.Action, err)
	}

	p.logger.Debug("published audit event",
		"exchange", ExchangeAudit,
		"routing_key", event.Action,
		"message_id", event.ID,
	)
	return nil
}
