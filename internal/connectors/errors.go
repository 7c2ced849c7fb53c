package connectors

import (
	"errors"
	"fmt"
	"time"
)

// ErrVerifierUnavailable - сервис заказов не ответил корректно (5xx, сеть, битый ответ).
var ErrVerifierUnavailable = errors.New("order verifier unavailable")

// ThrottleError - сервис заказов попросил подождать (429 / RESOURCE_EXHAUSTED).
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// RejectedError - сервис заказов отклонил запрос (4xx). Повторять бессмысленно.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected [%d]: %s", e.StatusCode, e.Message)
}

// IsPermanent сообщает, что ошибку не исправит повтор запроса.
func IsPermanent(err error) bool {
	var rErr *RejectedError
	return errors.As(err, &rErr)
}
