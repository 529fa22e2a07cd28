// Package repo — хранение журнала аудита в PostgreSQL.
//
// AuditRepo пишет события в таблицу audit_events и читает последние
// записи для команды audit. Работает через DBTX, которому удовлетворяет
// *pgxpool.Pool, так что в тестах пул подменяется.
package repo
