package tgbotapisfm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken         = errors.New("bot token is empty")
	ErrNegativeExpiration   = errors.New("expiration must not be negative")
	ErrNegativeCleanup      = errors.New("cleanup interval must not be negative")
	ErrTelegramInit         = errors.New("failed to init telegram bot api")
	ErrStateNotFound        = errors.New("user state not found")
	ErrInvalidStateType     = errors.New("invalid state type in cache")
	ErrStateHandlerNotFound = errors.New("state is not registered")
)

// ValidationError — ошибка конфигурации или перехода с контекстом значения
type ValidationError struct {
	Err   error
	Value interface{}
}

func NewValidationError(err error, value interface{}) *ValidationError {
	return &ValidationError{Err: err, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
