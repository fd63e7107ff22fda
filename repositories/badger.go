package repositories

import (
	"batepapo/errors"
	"context"
	goerrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds the retries of a read-write transaction aborted by
// badger's conflict detection (another transaction touched the same keys).
const maxTxnRetries = 5

// OpenInMemory opens a badger DB that lives only in memory.
func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
}

// update runs fn in a read-write transaction, retrying on ErrConflict.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := db.Update(fn)
		if goerrors.Is(err, badger.ErrConflict) && attempt < maxTxnRetries {
			continue
		}
		return storeError(err)
	}
}

func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return storeError(db.View(fn))
}

// storeError lets domain errors and context errors through untouched and
// classifies everything else as a store failure.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case goerrors.Is(err, errors.ErrNameTaken),
		goerrors.Is(err, errors.ErrParticipantNotFound),
		goerrors.Is(err, errors.ErrMessageNotFound),
		goerrors.Is(err, errors.ErrUnauthorized),
		goerrors.Is(err, context.Canceled),
		goerrors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}
