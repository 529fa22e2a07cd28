// Package config собирает настройки tetractl из трёх источников.
//
// Приоритет (от высшего): флаги командной строки, переменные окружения
// с префиксом TETRA_ (TETRA_ENDPOINT, TETRA_API_KEY, ...), файл
// tetractl.yaml, значения по умолчанию. Файл ищется в текущем каталоге,
// $HOME/.tetractl и /etc/tetractl, либо задаётся явно через --config.
package config
