package workflow

import "errors"

// Ошибки предусловий. Проверяются до любых запросов к API.
var (
	// ErrScopeRequired — не задан ни ID, ни short name scope.
	ErrScopeRequired = errors.New("scope id or scope short name is required")

	// ErrAmbiguousScope — заданы одновременно ID и short name.
	ErrAmbiguousScope = errors.New("scope id and scope short name are mutually exclusive")

	// ErrMissingField — не заполнено обязательное поле.
	ErrMissingField = errors.New("required field is missing")
)

// ErrPartialFailure — часть операций сценария отклонена API.
var ErrPartialFailure = errors.New("partial failure")
