package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound — запрошенный учитель, урок или бронь не существуют.
var ErrNotFound = errors.New("not found")

// ValidationError — исправимая пользователем ошибка: неверная длительность,
// дата в прошлом, превышено окно предварительной записи и т.п.
// Сообщение показывается пользователю как есть.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создаёт ошибку валидации с готовым сообщением.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError — бизнес-конфликт: время уже занято другим бронированием.
// Не транзиентная ошибка, повтором не лечится.
type ConflictError struct {
	Message string
	Dates   []time.Time // конфликтующие даты, если их несколько
}

func (e *ConflictError) Error() string {
	if len(e.Dates) == 0 {
		return e.Message
	}
	formatted := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		formatted[i] = d.Format("2006-01-02 15:04")
	}
	return e.Message + ": " + strings.Join(formatted, ", ")
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict проверяет, является ли ошибка бизнес-конфликтом.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
