package batch

import "errors"

// Ошибки пакетной обработки.
var (
	// ErrUnknownAction — неизвестное действие.
	ErrUnknownAction = errors.New("unknown batch action")

	// ErrShortRow — в строке меньше колонок, чем требует действие.
	ErrShortRow = errors.New("row has too few columns")

	// ErrEmptyTable — в файле нет строк кроме заголовка.
	ErrEmptyTable = errors.New("table has no data rows")

	// ErrMalformedTable — CSV не разбирается; таблица отклоняется целиком.
	ErrMalformedTable = errors.New("malformed table")
)
