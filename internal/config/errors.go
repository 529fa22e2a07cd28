package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrConflictingAuth — заданы одновременно файл credentials и ключ/секрет.
	ErrConflictingAuth = errors.New("use either --creds-file or --api-key/--api-secret, not both")

	// ErrInvalidOutput — неизвестный формат вывода.
	ErrInvalidOutput = errors.New("invalid output format")

	// ErrInvalidValue — значение вне допустимого диапазона.
	ErrInvalidValue = errors.New("invalid value")
)
