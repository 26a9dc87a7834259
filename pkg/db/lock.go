// pkg/db/lock.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Execer is the subset of *sqlx.Tx needed to change session settings.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// LockTimeoutStatement renders the SET LOCAL statement for the given bound.
// SET does not accept bind parameters, so the value is formatted in.
func LockTimeoutStatement(d time.Duration) string {
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())
}

// SetLockTimeout bounds how long statements in the current transaction wait for row
// locks. A non-positive duration leaves the server default (wait forever) untouched.
func SetLockTimeout(ctx context.Context, q Execer, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx, LockTimeoutStatement(d)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return nil
}
