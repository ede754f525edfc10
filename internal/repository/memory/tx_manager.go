package memory

import (
	"context"

	"shopcore-backend/internal/domain"
)

// TransactionManager serializes units of work against the store and rolls
// back by restoring a snapshot taken before the callback ran. Serializing
// through txMu mirrors the database's isolation for the workflows this
// core runs (order creation, cancellation).
type TransactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) domain.TransactionManager {
	return &TransactionManager{store: store}
}

func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()
	if err := fn(ctx); err != nil {
		tm.store.restore(snap)
		return err
	}
	return nil
}
