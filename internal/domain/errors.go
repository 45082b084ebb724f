package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate дубликат записи
	ErrDuplicate = errors.New("duplicate record")

	// ErrMissingSignature в запросе вебхука отсутствует подпись
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrInvalidSignature подпись вебхука не прошла проверку
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrSecretNotConfigured секрет вебхука не задан в конфигурации.
	// Это ошибка деплоя, а не ошибка верификации.
	ErrSecretNotConfigured = errors.New("webhook secret is not configured")

	// ErrAPIKeyNotConfigured API ключ платежного шлюза не задан в конфигурации
	ErrAPIKeyNotConfigured = errors.New("payment gateway API key is not configured")

	// ErrPaymentTokenMissing в payload вебхука нет токена платежного средства
	ErrPaymentTokenMissing = errors.New("payment method token not found in webhook payload")

	// ErrPaymentDataMissing в payload вебхука нет объекта платежа
	ErrPaymentDataMissing = errors.New("payment data not found in webhook payload")

	// ErrSubscriptionClaimed подписка уже захвачена другим запуском процессора
	ErrSubscriptionClaimed = errors.New("subscription is already claimed for billing")

	// ErrPaymentFailed платеж не прошел
	ErrPaymentFailed = errors.New("payment failed")
)

// GatewayError представляет ошибку платежного шлюза
type GatewayError struct {
	Operation   string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error реализует интерфейс error
func (e *GatewayError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("primer %s error: %s: %v (status: %d)", e.Operation, e.Message, e.OriginalErr, e.StatusCode)
	}
	return fmt.Sprintf("primer %s error: %s (status: %d)", e.Operation, e.Message, e.StatusCode)
}

// Unwrap возвращает оригинальную ошибку
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// NewGatewayError создает новую ошибку платежного шлюза
func NewGatewayError(operation, message string, statusCode int, err error) *GatewayError {
	return &GatewayError{
		Operation:   operation,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// SubscriptionError представляет ошибку обработки подписки
type SubscriptionError struct {
	SubscriptionID string
	Message        string
	OriginalErr    error
}

// Error реализует интерфейс error
func (e *SubscriptionError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("subscription %s: %s: %v", e.SubscriptionID, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("subscription %s: %s", e.SubscriptionID, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *SubscriptionError) Unwrap() error {
	return e.OriginalErr
}

// NewSubscriptionError создает новую ошибку подписки
func NewSubscriptionError(subscriptionID, message string, err error) *SubscriptionError {
	return &SubscriptionError{
		SubscriptionID: subscriptionID,
		Message:        message,
		OriginalErr:    err,
	}
}

// NotFoundError представляет ошибку "не найдено" с контекстом сущности
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateError представляет ошибку дубликата
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

// Error реализует интерфейс error
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s '%s' already exists", e.Entity, e.Field, e.Value)
}

// Is проверяет, является ли ошибка ошибкой дубликата
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// NewDuplicateError создает новую ошибку дубликата
func NewDuplicateError(entity, field, value string) *DuplicateError {
	return &DuplicateError{Entity: entity, Field: field, Value: value}
}
