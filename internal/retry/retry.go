// Package retry — дисциплина повторов вокруг транзакционных единиц работы.
// Повторяются только транзиентные ошибки хранилища (serialization failure,
// deadlock, lock timeout): бизнес-конфликт «слот уже занят» повторять
// бессмысленно, он всплывает сразу.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	sgretry "github.com/sethvargo/go-retry"
)

// Policy — параметры экспоненциального бэкоффа с джиттером.
type Policy struct {
	MaxAttempts uint64        // всего попыток, включая первую
	BaseDelay   time.Duration // стартовая задержка
	MaxDelay    time.Duration // потолок задержки
}

// DefaultPolicy возвращает политику по умолчанию для бронирований.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
	}
}

// Коды SQLSTATE, после которых повтор транзакции имеет смысл.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// IsTransient проверяет, является ли ошибка транзиентной ошибкой хранилища.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return true
		}
		return false
	}
	// обрыв соединения до отправки запроса безопасно повторять
	return pgconn.SafeToRetry(err)
}

// Do выполняет fn, повторяя её по политике p, пока ошибки транзиентны.
// После исчерпания попыток наружу уходит последняя ошибка.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Second
	}

	backoff := sgretry.NewExponential(base)
	backoff = sgretry.WithJitterPercent(30, backoff)
	backoff = sgretry.WithCappedDuration(maxDelay, backoff)
	backoff = sgretry.WithMaxRetries(attempts-1, backoff)

	return sgretry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransient(err) {
				return sgretry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
