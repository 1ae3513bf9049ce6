package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Postgres SQLSTATE codes the application reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// pgdriver.Error exposes the server fields through Field.
type fieldError interface {
	Field(k byte) string
}

// SQLState returns the Postgres error code carried by err, if any.
func SQLState(err error) string {
	var fe fieldError
	if errors.As(err, &fe) {
		return fe.Field('C')
	}
	return ""
}

// Constraint returns the violated constraint name, if any.
func Constraint(err error) string {
	var fe fieldError
	if errors.As(err, &fe) {
		return fe.Field('n')
	}
	return ""
}

// IsUniqueViolation reports a duplicate key error.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports a missing referenced row.
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == codeForeignKeyViolation
}

// IsCheckViolation reports a failed CHECK constraint.
func IsCheckViolation(err error) bool {
	return SQLState(err) == codeCheckViolation
}

// Unique constraints that concurrent intakes race on. A second attempt sees the
// committed row and takes the update path.
var racedKeys = map[string]bool{
	"clients_phone_key":         true,
	"vehicles_plate_key":        true,
	"service_orders_number_key": true,
}

// IsRetryable reports errors where re-running the whole transaction may succeed:
// serialization failures, deadlocks and duplicates on the keys in racedKeys.
// Any other unique violation is a real conflict and fails the same way again.
func IsRetryable(err error) bool {
	switch SQLState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	case codeUniqueViolation:
		return racedKeys[Constraint(err)]
	default:
		return false
	}
}

// IsNoRows reports an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Retry runs fn up to attempts times while it fails with a retryable error.
// onRetry, when set, is called before each new attempt.
func Retry(ctx context.Context, attempts int, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(attempt)
		if err == nil || !IsRetryable(err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		backoff := time.Duration(attempt) * 25 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
