// Package workflow — сценарии поверх management API.
//
// # Обзор
//
// Каждый сценарий — короткая цепочка зависимых запросов: резолвер
// превращает человекочитаемый идентификатор (short name, имя, тройку
// first/last/email) в ID, мутирующий сценарий проверяет «уже существует?»
// и только потом создаёт, удаляет или назначает.
//
// Резолверы возвращают (значение, found, err): отсутствие объекта — это
// состояние, а не ошибка. Ошибка означает, что сам запрос не удался.
//
// Мутирующие сценарии возвращают *XResult с полем Outcome. Если сценарий
// дошёл до мутации и API её отклонил, возвращаются и результат, и ошибка:
// результат описывает, что успело произойти.
//
// Состояние между вызовами не хранится: всё, что нужно следующему шагу,
// передаётся через возвращаемые значения.
package workflow
