package mq

import (
	"fmt"
)

// Exchange — имя обменника.
type Exchange string

// ExchangeAudit — topic exchange событий аудита.
const ExchangeAudit Exchange = "tetractl.audit"

// RoutingAll — ключ привязки, под который попадают все события.
const RoutingAll = "#"

// SetupTopology объявляет exchange аудита. Повторный вызов безопасен.
func SetupTopology(ch Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeAudit), // name
		"topic",               // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeAudit, err)
	}
	return nil
}
