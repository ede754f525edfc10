package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type inventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) domain.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Reserve(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error {
	q := querier(ctx, r.db)

	// Conditional decrement: the WHERE clause is the stock check, so two
	// concurrent reservations can never both take the last unit.
	ct, err := q.Exec(ctx, `
		UPDATE inventory_stock
		SET quantity = quantity - $3, updated_at = $4
		WHERE product_id = $1
		  AND variant_id IS NOT DISTINCT FROM $2
		  AND quantity >= $3`,
		productID, variantID, qty, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}

	return r.recordMovement(ctx, q, productID, variantID, -qty, reason, referenceID)
}

func (r *inventoryRepository) Restore(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error {
	q := querier(ctx, r.db)

	ct, err := q.Exec(ctx, `
		UPDATE inventory_stock
		SET quantity = quantity + $3, updated_at = $4
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2`,
		productID, variantID, qty, time.Now())
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return r.recordMovement(ctx, q, productID, variantID, qty, reason, referenceID)
}

func (r *inventoryRepository) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	q := querier(ctx, r.db)
	var qty int
	err := q.QueryRow(ctx, `
		SELECT quantity FROM inventory_stock
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2`,
		productID, variantID).Scan(&qty)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (r *inventoryRepository) MovementsByReference(ctx context.Context, referenceID string) ([]domain.StockMovement, error) {
	q := querier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, product_id, variant_id, change_amount, reason, reference_id, created_at
		FROM stock_movements WHERE reference_id = $1 ORDER BY created_at`, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.VariantID,
			&m.ChangeAmount, &m.Reason, &m.ReferenceID, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *inventoryRepository) recordMovement(ctx context.Context, q DBTX, productID string, variantID *string, change int, reason, referenceID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, variant_id, change_amount, reason, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		utils.GenerateUUID(), productID, variantID, change, reason, referenceID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}
