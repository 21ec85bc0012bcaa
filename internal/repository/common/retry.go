package common

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
)

// RetryPolicy задаёт ограниченное число повторов при конкурентных записях.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetryPolicy: три попытки с паузой 50ms, 100ms.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: 50 * time.Millisecond}

// WithRetry выполняет fn и повторяет её только для ошибок, признанных IsRetryable.
// Когда попытки исчерпаны, возвращается DATABASE_ERROR с исходной причиной.
func WithRetry(ctx context.Context, policy RetryPolicy, op string, fn func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.L().WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("repository: конфликт блокировок, повторяем")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return apperror.Wrap(fmt.Errorf("%s: попытки исчерпаны: %w", op, err), apperror.ErrCodeDatabaseError, "database is busy")
}
