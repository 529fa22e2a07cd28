package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event — одна мутирующая операция.
type Event struct {
	ID      uuid.UUID `json:"id"`
	RunID   string    `json:"run_id"`
	Action  string    `json:"action"`
	Target  string    `json:"target"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Sink — получатель событий.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc адаптирует функцию к Sink.
type SinkFunc func(ctx context.Context, event Event) error

// Record вызывает f.
func (f SinkFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Recorder рассылает события по sink. Нулевой *Recorder ничего не делает.
type Recorder struct {
	runID  string
	logger *slog.Logger
	sinks  []Sink
	now    func() time.Time
}

// NewRecorder создаёт Recorder. nil-sink пропускаются.
func NewRecorder(runID string, logger *slog.Logger, sinks ...Sink) *Recorder {
	r := &Recorder{runID: runID, logger: logger, now: time.Now}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// Enabled сообщает, есть ли хотя бы один sink.
func (r *Recorder) Enabled() bool {
	return r != nil && len(r.sinks) > 0
}

// Record собирает событие и отправляет его во все sink.
// Ошибки sink только логируются.
func (r *Recorder) Record(ctx context.Context, action, target, outcome string, opErr error) {
	if !r.Enabled() {
		return
	}

	event := Event{
		ID:      uuid.New(),
		RunID:   r.runID,
		Action:  action,
		Target:  target,
		Outcome: outcome,
		Time:    r.now().UTC(),
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, event); err != nil {
			r.logger.Warn("audit sink failed", "action", action, "target", target, "error", err)
		}
	}
}
