// internal/service/errors.go
package service

import (
	"fmt"

	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

// storeError classifies an infrastructure failure. Lock contention becomes ErrBusy,
// everything else ErrStoreUnavailable; the cause stays in the chain for logging.
func storeError(op string, err error) error {
	if db.IsLockContention(err) {
		return fmt.Errorf("%s: %w: %w", op, util.ErrBusy, err)
	}
	return fmt.Errorf("%s: %w: %w", op, util.ErrStoreUnavailable, err)
}
