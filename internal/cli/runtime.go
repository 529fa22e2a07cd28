package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/shaiso/tetractl/internal/audit"
	"github.com/shaiso/tetractl/internal/config"
	"github.com/shaiso/tetractl/internal/mq"
	"github.com/shaiso/tetractl/internal/repo"
	"github.com/shaiso/tetractl/internal/telemetry"
	"github.com/shaiso/tetractl/internal/tetration"
	"github.com/shaiso/tetractl/internal/workflow"
)

// Ошибки окружения команд.
var (
	// ErrAuditDBDisabled — команде нужна БД аудита, но --audit-db-url не задан.
	ErrAuditDBDisabled = errors.New("audit database is not configured (--audit-db-url)")

	// ErrAuditMQDisabled — команде нужен RabbitMQ, но --audit-amqp-url не задан.
	ErrAuditMQDisabled = errors.New("audit broker is not configured (--audit-amqp-url)")

	// ErrTailSaveToFile — audit tail печатает поток событий, файл перезаписывался бы на каждом.
	ErrTailSaveToFile = errors.New("audit tail streams events and cannot be used with --save-to-file")
)

// Runtime — зависимости команд одного запуска.
//
// Создаётся до разбора флагов, заполняется в PersistentPreRunE.
// API-клиент, БД и брокер открываются лениво при первом обращении,
// чтобы команды, которым они не нужны, работали без них.
type Runtime struct {
	version    string
	configFile string

	cfg     *config.Config
	logger  *slog.Logger
	runID   string
	metrics *telemetry.Metrics
	out     *Output

	svc       *workflow.Service
	recorder  *audit.Recorder
	auditRepo *repo.AuditRepo
	pool      *pgxpool.Pool
	broker    *mq.Connection

	running bool
}

// setup читает конфигурацию и готовит логгер, метрики и вывод.
func (rt *Runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), rt.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	rt.cfg = cfg

	rt.runID = uuid.NewString()
	logger := telemetry.SetupLogger(telemetry.LogOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	rt.logger = telemetry.WithAction(telemetry.WithRunID(logger, rt.runID), cmd.CommandPath())
	rt.metrics = telemetry.NewMetrics()
	rt.out = newOutput(cfg.Output, cfg.SaveToFile, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cmd.SetContext(telemetry.WithLogger(cmd.Context(), rt.logger))
	rt.logger.Debug("configuration loaded", "endpoint", cfg.Endpoint, "output", cfg.Output)
	return nil
}

// Output возвращает вывод запуска. До setup — вывод по умолчанию.
func (rt *Runtime) Output() *Output {
	if rt.out == nil {
		rt.out = NewOutput(config.OutputJSON, "")
	}
	return rt.out
}

// Service возвращает сервис сценариев поверх подписанного API-клиента.
func (rt *Runtime) Service() (*workflow.Service, error) {
	if rt.svc != nil {
		return rt.svc, nil
	}

	creds, err := rt.cfg.Credentials()
	if err != nil {
		if errors.Is(err, config.ErrConflictingAuth) ||
			errors.Is(err, tetration.ErrMissingCredentials) ||
			errors.Is(err, tetration.ErrMissingEndpoint) {
			return nil, usageError{err}
		}
		return nil, err
	}

	client, err := tetration.NewClient(tetration.Config{
		Endpoint:    rt.cfg.Endpoint,
		Credentials: creds,
		Insecure:    rt.cfg.Insecure,
		Timeout:     rt.cfg.Timeout,
		RateLimit:   rt.cfg.RateLimit,
		UserAgent:   "tetractl/" + rt.version,
		Logger:      rt.logger,
		Metrics:     rt.metrics,
	})
	if err != nil {
		return nil, err
	}

	rt.svc = workflow.NewService(client, rt.logger)
	return rt.svc, nil
}

// Recorder возвращает журнал аудита. Недоступный sink логируется и
// пропускается: аудит не мешает основной операции.
func (rt *Runtime) Recorder(ctx context.Context) *audit.Recorder {
	if rt.recorder != nil {
		return rt.recorder
	}

	var sinks []audit.Sink
	if rt.cfg.AuditDBURL != "" {
		if store, err := rt.AuditStore(ctx); err != nil {
			rt.logger.Warn("audit database unavailable", "error", err)
		} else {
			sinks = append(sinks, store)
		}
	}
	if rt.cfg.AuditAMQPURL != "" {
		if conn, err := rt.Broker(); err != nil {
			rt.logger.Warn("audit broker unavailable", "error", err)
		} else {
			sinks = append(sinks, mq.NewAuditPublisher(conn.Channel(), rt.logger))
		}
	}

	rt.recorder = audit.NewRecorder(rt.runID, rt.logger, sinks...)
	return rt.recorder
}

// AuditStore открывает БД аудита и создаёт схему.
func (rt *Runtime) AuditStore(ctx context.Context) (*repo.AuditRepo, error) {
	if rt.auditRepo != nil {
		return rt.auditRepo, nil
	}
	if rt.cfg.AuditDBURL == "" {
		return nil, ErrAuditDBDisabled
	}

	pool, err := repo.NewPool(ctx, rt.cfg.AuditDBURL)
	if err != nil {
		return nil, err
	}

	store := repo.NewAuditRepo(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	rt.pool = pool
	rt.auditRepo = store
	return store, nil
}

// Broker открывает соединение с RabbitMQ и объявляет exchange аудита.
func (rt *Runtime) Broker() (*mq.Connection, error) {
	if rt.broker != nil {
		return rt.broker, nil
	}
	if rt.cfg.AuditAMQPURL == "" {
		return nil, ErrAuditMQDisabled
	}

	conn, err := mq.Dial(rt.cfg.AuditAMQPURL, rt.logger)
	if err != nil {
		return nil, err
	}
	if err := mq.SetupTopology(conn.Channel()); err != nil {
		conn.Close()
		return nil, err
	}

	rt.broker = conn
	return conn, nil
}

// record пишет итог мутирующей операции в журнал аудита.
func (rt *Runtime) record(ctx context.Context, action, target string, outcome workflow.Outcome, opErr error) {
	rt.Recorder(ctx).Record(ctx, action, target, string(outcome), opErr)
}

// finish выгружает метрики и закрывает соединения. Вызывается всегда,
// в том числе после ошибки команды.
func (rt *Runtime) finish() error {
	var errs []error

	if rt.cfg != nil && rt.cfg.MetricsFile != "" {
		if err := rt.metrics.WriteTextfile(rt.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if rt.broker != nil {
		if err := rt.broker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.pool != nil {
		rt.pool.Close()
	}

	return errors.Join(errs...)
}

// usageError — ошибка в аргументах, обнаруженная до обращения к API.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// IsUsage сообщает, вызвана ли ошибка неверными аргументами.
func IsUsage(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}
