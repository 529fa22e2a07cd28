// Package telemetry обеспечивает наблюдаемость CLI.
//
// Включает:
//   - logging.go — structured logging через slog (text через charmbracelet/log, json)
//   - metrics.go — Prometheus метрики запуска с выгрузкой в textfile
//
// Логи пишутся в stderr, stdout остаётся для данных.
package telemetry
