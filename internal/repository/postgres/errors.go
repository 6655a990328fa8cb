// internal/repository/postgres/errors.go
package postgres

import (
	"errors"

	"tradehub-ledger/internal/util"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation   = "23505"
	pqLockNotAvailable  = "55P03"
	pqSerializationFail = "40001"
)

// mapPQError translates driver-level error codes into the application's
// sentinel errors. Unique violations become duplicates, lock and
// serialization failures become retryable concurrency conflicts.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return util.ErrDuplicateEntry
	case pqLockNotAvailable, pqSerializationFail:
		return util.ErrConcurrencyConflict
	}
	return err
}
