// Package cli реализует команды tetractl.
//
// # Обзор
//
// Каждая команда разбирает флаги, вызывает один сценарий из
// internal/workflow и печатает результат. Аргументы проверяются до
// первого запроса к API; ошибка в аргументах печатается вместе с usage.
//
// # Ключевые компоненты
//
// ## Runtime
//
// Зависимости одного запуска: конфигурация, логгер с run_id, метрики,
// вывод, сервис сценариев и журнал аудита. API-клиент, БД и брокер
// открываются лениво: audit list не требует ключей API, а user list
// не требует БД.
//
// ## Output
//
// Данные выводятся в stdout в формате --output:
//   - json (по умолчанию) — отступ 4 пробела, порядок ключей как в ответе API
//   - yaml — через gopkg.in/yaml.v3
//   - table — text/tabwriter
//
// С флагом --save-to-file данные пишутся в файл: JSON с отсортированными
// ключами и экранированными не-ASCII символами. Сообщения идут в stderr:
// информационные жёлтым, ошибки красным. Это позволяет использовать pipe:
// tetractl scope list | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - scope: list, show, create
//   - app: list, show, create, clusters, delete
//   - user: list, find, add, delete, add-role, remove-role
//   - role: list, ids, add
//   - sensor: list, show, delete
//   - switch list, flow dimensions|metrics, inventory dimensions|filters
//   - batch ACTION FILE
//   - audit: list, show, tail
//
// Каждая группа создаётся фабричной функцией (NewScopeCmd и т.д.),
// принимающей *Runtime.
package cli
