package repo

import "errors"

// Ошибки репозитория.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEvent — у события не заполнены обязательные поля.
	ErrInvalidEvent = errors.New("invalid audit event")
)
