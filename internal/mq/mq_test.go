package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/tetractl/internal/audit"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeChannel — Channel в памяти.
type fakeChannel struct {
	exchanges  []string
	bindings   []string
	published  []published
	publishErr error
	deliveries chan amqp.Delivery
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.exchanges = append(f.exchanges, name+":"+kind)
	if !durable {
		return errors.New("exchange must be durable")
	}
	return nil
}

func (f *fakeChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: "amq.gen-1"}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, name+"|"+key+"|"+exchange)
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() audit.Event {
	return audit.Event{
		ID:      uuid.New(),
		RunID:   "run-1",
		Action:  "user.add",
		Target:  "a@b.io",
		Outcome: "created",
		Time:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSetupTopology(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, SetupTopology(ch))
	assert.Equal(t, []string{"tetractl.audit:topic"}, ch.exchanges)
}

func TestAuditPublisher_Record(t *testing.T) {
	ch := &fakeChannel{}
	event := testEvent()

	require.NoError(t, NewAuditPublisher(ch, discard()).Record(context.Background(), event))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, "tetractl.audit", p.exchange)
	assert.Equal(t, "user.add", p.key)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, event.ID.String(), p.msg.MessageId)

	var got audit.Event
	require.NoError(t, json.Unmarshal(p.msg.Body, &got))
	assert.Equal(t, event, got)
}

func TestAuditPublisher_RecordError(t *testing.T) {
	ch := &fakeChannel{publishErr: amqp.ErrClosed}
	err := NewAuditPublisher(ch, discard()).Record(context.Background(), testEvent())
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestSubscriber_Tail(t *testing.T) {
	event := testEvent()
	body, err := json.Marshal(event)
	require.NoError(t, err)

	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 2)}
	ch.deliveries <- amqp.Delivery{Body: []byte("not json")}
	ch.deliveries <- amqp.Delivery{Body: body}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []audit.Event
	err = NewSubscriber(ch, discard()).Tail(ctx, "", func(_ context.Context, e audit.Event) error {
		got = append(got, e)
		cancel()
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, event.ID, got[0].ID)
	assert.Equal(t, []string{"amq.gen-1|#|tetractl.audit"}, ch.bindings)
}

func TestSubscriber_TailHandlerError(t *testing.T) {
	body, _ := json.Marshal(testEvent())
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 1)}
	ch.deliveries <- amqp.Delivery{Body: body}

	stop := errors.New("stop")
	err := NewSubscriber(ch, discard()).Tail(context.Background(), "user.*", func(context.Context, audit.Event) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"amq.gen-1|user.*|tetractl.audit"}, ch.bindings)
}

func TestSubscriber_TailClosedChannel(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery)}
	close(ch.deliveries)

	err := NewSubscriber(ch, discard()).Tail(context.Background(), "", func(context.Context, audit.Event) error { return nil })
	assert.Error(t, err)
}
