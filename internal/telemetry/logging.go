package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Форматы вывода логов.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LogOptions — настройки логгера.
type LogOptions struct {
	// Level: DEBUG, INFO, WARN, ERROR (регистр не важен). По умолчанию WARN.
	Level string

	// Format: "text" (по умолчанию) или "json".
	Format string

	// Output — куда писать. По умолчанию os.Stderr.
	Output io.Writer
}

// ParseLevel переводит строковый уровень в slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат "text" рендерится charmbracelet/log (цветной вывод для терминала),
// "json" — стандартным slog.JSONHandler.
func SetupLogger(opts LogOptions) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	if strings.EqualFold(opts.Format, FormatJSON) {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
		})
	} else {
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			ReportCaller:    level == slog.LevelDebug,
			Prefix:          "tetractl",
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func charmLevel(level slog.Level) charmlog.Level {
	switch level {
	case slog.LevelDebug:
		return charmlog.DebugLevel
	case slog.LevelInfo:
		return charmlog.InfoLevel
	case slog.LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.WarnLevel
	}
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithRunID возвращает логгер с добавленным run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithAction возвращает логгер с добавленным action.
func WithAction(logger *slog.Logger, action string) *slog.Logger {
	return logger.With("action", action)
}
