package common

import (
	"errors"

	"github.com/lib/pq"
)

// ErrAlreadyExists: запись с таким уникальным ключом уже есть.
var ErrAlreadyExists = errors.New("entity already exists")

// Коды ошибок PostgreSQL, которые мы различаем.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// UniqueViolation возвращает имя нарушенного ограничения уникальности.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsRetryable сообщает, что операцию можно повторить: конфликт сериализации,
// взаимная блокировка или недоступная блокировка строки.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}
