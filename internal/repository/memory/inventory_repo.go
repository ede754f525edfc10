package memory

import (
	"context"
	"fmt"
	"time"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type InventoryRepository struct {
	store *Store
}

func NewInventoryRepository(store *Store) *InventoryRepository {
	return &InventoryRepository{store: store}
}

// SetStock seeds the available quantity for a product/variant. Test and
// bootstrap helper; production stock arrives through catalog imports.
func (r *InventoryRepository) SetStock(productID string, variantID *string, qty int) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[stockKey(productID, variantID)] = qty
}

func (r *InventoryRepository) Reserve(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stockKey(productID, variantID)
	// Conditional decrement under the store lock: the check and the write
	// are one atomic step, so two reservations for the last unit cannot
	// both succeed.
	if s.stock[key] < qty {
		return fmt.Errorf("%w: %s has %d, requested %d", domain.ErrInsufficientStock, key, s.stock[key], qty)
	}
	s.stock[key] -= qty
	s.movements = append(s.movements, domain.StockMovement{
		ID:           utils.GenerateUUID(),
		ProductID:    productID,
		VariantID:    variantID,
		ChangeAmount: -qty,
		Reason:       reason,
		ReferenceID:  referenceID,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

func (r *InventoryRepository) Restore(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error {
	if qty <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", qty)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stockKey(productID, variantID)
	s.stock[key] += qty
	s.movements = append(s.movements, domain.StockMovement{
		ID:           utils.GenerateUUID(),
		ProductID:    productID,
		VariantID:    variantID,
		ChangeAmount: qty,
		Reason:       reason,
		ReferenceID:  referenceID,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

func (r *InventoryRepository) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[stockKey(productID, variantID)], nil
}

func (r *InventoryRepository) MovementsByReference(ctx context.Context, referenceID string) ([]domain.StockMovement, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.StockMovement
	for _, m := range s.movements {
		if m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

// MovementCount reports the total number of ledger rows written. Test
// helper for verifying that failed workflows performed zero stock writes.
func (r *InventoryRepository) MovementCount() int {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}
