// Package mq — публикация и чтение событий аудита через RabbitMQ.
//
// Структура:
//   - connection.go — соединение и канал AMQP
//   - topology.go   — объявление exchange
//   - publisher.go  — AuditPublisher, audit.Sink поверх topic exchange
//   - consumer.go   — Subscriber для команды audit tail
//
// Exchange:
//   - tetractl.audit (topic, durable), routing key — action события,
//     например "user.add" или "batch.scope-create".
package mq
