package tetration

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента.
var (
	// ErrNotFound — API вернул 404.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest — API вернул 400. В ряде операций означает «уже сделано».
	ErrBadRequest = errors.New("bad request")

	// ErrMissingCredentials — не заданы api key или api secret.
	ErrMissingCredentials = errors.New("api key and api secret are required")

	// ErrMissingEndpoint — не задан адрес API.
	ErrMissingEndpoint = errors.New("api endpoint is required")
)

// APIError — ответ API со статусом вне диапазона 2xx.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is сопоставляет статус ответа с ErrNotFound и ErrBadRequest.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// StatusCode возвращает HTTP-статус из ошибки API или 0, если это не *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
