package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/tetractl/internal/audit"
)

// DefaultListLimit — сколько событий возвращает ListRecent без явного лимита.
const DefaultListLimit = 50

// DBTX — подмножество pgxpool.Pool, которое использует репозиторий.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuditRepo — репозиторий событий аудита. Реализует audit.Sink.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepo создаёт AuditRepo.
func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

var _ audit.Sink = (*AuditRepo)(nil)

// EnsureSchema создаёт таблицу и индекс, если их нет.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id         uuid PRIMARY KEY,
			run_id     text NOT NULL,
			action     text NOT NULL,
			target     text NOT NULL,
			outcome    text NOT NULL,
			error      text,
			created_at timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS audit_events_created_at_idx ON audit_events (created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	}
	return nil
}

// Record сохраняет событие.
func (r *AuditRepo) Record(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil || event.Action == "" {
		return ErrInvalidEvent
	}

	query := `
		INSERT INTO audit_events (id, run_id, action, target, outcome, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.RunID,
		event.Action,
		event.Target,
		event.Outcome,
		nullString(event.Error),
		event.Time,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// GetByID возвращает событие по ID.
func (r *AuditRepo) GetByID(ctx context.Context, id uuid.UUID) (*audit.Event, error) {
	query := `
		SELECT id, run_id, action, target, outcome, error, created_at
		FROM audit_events
		WHERE id = $1
	`
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return event, nil
}

// AuditFilter — параметры ListRecent.
type AuditFilter struct {
	Action string
	RunID  string
	Limit  int
}

// ListRecent возвращает последние события, новые первыми.
func (r *AuditRepo) ListRecent(ctx context.Context, filter AuditFilter) ([]audit.Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, run_id, action, target, outcome, error, created_at
		FROM audit_events
		WHERE ($1::text IS NULL OR action = $1)
		  AND ($2::text IS NULL OR run_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, nullString(filter.Action), nullString(filter.RunID), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// scanEvent читает одну строку; pgx.Rows тоже удовлетворяет pgx.Row.
func scanEvent(row pgx.Row) (*audit.Event, error) {
	var (
		event  audit.Event
		errMsg *string
	)
	if err := row.Scan(
		&event.ID,
		&event.RunID,
		&event.Action,
		&event.Target,
		&event.Outcome,
		&errMsg,
		&event.Time,
	); err != nil {
		return nil, err
	}
	if errMsg != nil {
		event.Error = *errMsg
	}
	return &event, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
