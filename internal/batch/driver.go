package batch

import (
	"context"
	"fmt"
)

// Status — итог обработки строки.
type Status string

// Статусы строк.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// RowResult — итог одной строки.
type RowResult struct {
	Line   int    `json:"line"`
	Status Status `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	Err error `json:"-"`
}

// Report — итог всего файла.
type Report struct {
	Action    Action      `json:"action"`
	Rows      []RowResult `json:"rows"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`

	interrupted error
}

// Err возвращает ошибку, если хотя бы одна строка не удалась или
// не была обработана. Прерванный прогон оборачивает причину отмены.
func (r Report) Err() error {
	switch {
	case r.Skipped > 0:
		return fmt.Errorf("%s: %d failed, %d of %d rows not processed: %w",
			r.Action, r.Failed, r.Skipped, len(r.Rows), r.interrupted)
	case r.Failed > 0:
		return fmt.Errorf("%s: %d of %d rows failed", r.Action, r.Failed, len(r.Rows))
	}
	return nil
}

// Run обрабатывает строки по порядку.
//
// parse переводит строку в параметры сценария, apply выполняет сценарий.
// Ошибка любого из них помечает строку как failed и не останавливает цикл.
// observe (может быть nil) вызывается после каждой строки.
// Отмена ctx прекращает обработку: оставшиеся строки попадают в отчёт
// со статусом skipped без вызова observe.
func Run[T any](
	ctx context.Context,
	rows []Row,
	parse func(Row) (T, error),
	apply func(context.Context, T) (any, error),
	observe func(RowResult),
) Report {
	var report Report

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			report.interrupted = err
			report.Skipped++
			report.Rows = append(report.Rows, RowResult{
				Line:   row.Line,
				Status: StatusSkipped,
				Error:  err.Error(),
				Err:    err,
			})
			continue
		}

		res := RowResult{Line: row.Line, Status: StatusOK}

		params, err := parse(row)
		if err == nil {
			res.Result, err = apply(ctx, params)
		}
		if err != nil {
			res.Status = StatusFailed
			res.Err = err
			res.Error = err.Error()
			report.Failed++
		} else {
			report.Succeeded++
		}

		report.Rows = append(report.Rows, res)
		if observe != nil {
			observe(res)
		}
	}

	return report
}
