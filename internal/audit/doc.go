// Package audit — журнал мутирующих операций.
//
// Каждый мутирующий сценарий (создание, удаление, назначение роли,
// строка пакетного файла) порождает Event. Recorder рассылает событие
// во все настроенные Sink: таблицу Postgres (internal/repo) и/или
// topic exchange RabbitMQ (internal/mq).
//
// Журнал вторичен: ошибка sink логируется и никогда не влияет на
// результат сценария или код выхода.
//
//	rec := audit.NewRecorder(runID, logger, auditRepo, publisher)
//	rec.Record(ctx, "user.add", "a@b.io", "created", nil)
package audit
