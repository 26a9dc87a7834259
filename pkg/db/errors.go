// pkg/db/errors.go
package db

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the services care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOverflow     = "22003"
	codeLockNotAvailable    = "55P03"
	codeDeadlockDetected    = "40P01"
	codeQueryCanceled       = "57014"
)

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsLockContention reports whether err means a row lock could not be obtained in time:
// lock_timeout expiry, statement cancellation, or a deadlock broken by the server.
func IsLockContention(err error) bool {
	switch pgCode(err) {
	case codeLockNotAvailable, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// IsNumericOverflow reports whether a value did not fit its numeric column.
func IsNumericOverflow(err error) bool {
	return pgCode(err) == codeNumericOverflow
}
