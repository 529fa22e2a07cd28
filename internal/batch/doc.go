// Package batch — пакетная обработка CSV-файлов.
//
// Первая строка файла — заголовок, пропускается. Каждая следующая строка
// позиционно отображается в один вызов сценария; набор колонок задаётся
// Action. Строки обрабатываются строго по порядку, одна за другой:
// ошибка или no-op в строке не останавливает обработку остальных,
// откат уже выполненных строк не делается.
//
//	rows, err := batch.ReadFile("users.csv")
//	report, err := batch.Dispatch(ctx, svc, batch.ActionUserAdd, rows, observe)
package batch
