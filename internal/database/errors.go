package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/npezzotti/gosocial/internal/apperr"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	switch pqCode(err) {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return true
	}
	return false
}

// classify maps driver errors onto the failure taxonomy. Typed errors from
// the transaction body are returned untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case isRetryable(err):
		return apperr.Transient(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Transient(err)
	case errors.Is(err, sql.ErrNoRows):
		return apperr.Wrap(apperr.KindNotFound, "not found", err)
	}

	switch pqCode(err) {
	case pqUniqueViolation:
		return apperr.Wrap(apperr.KindConflict, "duplicate record", err)
	case pqForeignKeyViolation:
		return apperr.Wrap(apperr.KindNotFound, "referenced record not found", err)
	case pqCheckViolation:
		return apperr.Wrap(apperr.KindInvalid, "constraint check failed", err)
	}

	return apperr.Internal(err)
}
