package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel — методы AMQP канала, которые использует пакет.
// *amqp.Channel удовлетворяет интерфейсу.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Connection — AMQP соединение с одним каналом.
//
// CLI живёт один запуск, поэтому переподключения нет: разрыв
// соединения проявится ошибкой публикации, которую залогирует Recorder.
type Connection struct {
	logger  *slog.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial открывает соединение и канал.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	logger.Debug("connected to RabbitMQ")
	return &Connection{logger: logger, conn: conn, channel: ch}, nil
}

// Channel возвращает канал соединения.
func (c *Connection) Channel() Channel {
	return c.channel
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	var errs []error

	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}

	return errors.Join(errs...)
}
