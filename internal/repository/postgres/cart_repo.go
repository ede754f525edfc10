package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type cartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := r.GetByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	q := querier(ctx, r.db)
	now := time.Now()

	// ON CONFLICT DO NOTHING guards the per-owner unique indexes: a
	// concurrent creator wins and the re-read below returns its row.
	_, err = q.Exec(ctx, `
		INSERT INTO carts (id, customer_id, session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT DO NOTHING`,
		utils.GenerateUUID(), owner.CustomerID, owner.SessionID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.GetByOwner(ctx, owner)
}

func (r *cartRepository) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	q := querier(ctx, r.db)

	where := "customer_id = $1"
	var arg string
	if owner.CustomerID != nil {
		arg = *owner.CustomerID
	} else {
		where = "session_id = $1"
		arg = *owner.SessionID
	}

	row := q.QueryRow(ctx, `
		SELECT id, customer_id, session_id, coupon_code,
		       subtotal, discount_amount, shipping_cost, tax_amount, total, items_count,
		       created_at, updated_at
		FROM carts WHERE `+where, arg)

	cart, err := scanCart(row)
	if err != nil {
		return nil, err
	}

	cart.Items, err = r.loadItems(ctx, q, cart.ID)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	q := querier(ctx, r.db)

	ct, err := q.Exec(ctx, `
		UPDATE carts
		SET coupon_code = $2, subtotal = $3, discount_amount = $4,
		    shipping_cost = $5, tax_amount = $6, total = $7, items_count = $8,
		    updated_at = $9
		WHERE id = $1`,
		cart.ID, cart.CouponCode,
		mustNumeric(cart.Subtotal), mustNumeric(cart.DiscountAmount),
		mustNumeric(cart.ShippingCost), mustNumeric(cart.TaxAmount),
		mustNumeric(cart.Total), cart.ItemsCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	// Line items are replaced wholesale; the cart entity is the source of
	// truth for its lines.
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	for pos, item := range cart.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity,
			                        unit_price, line_total, options, metadata, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, cart.ID, item.ProductID, item.VariantID, item.Quantity,
			mustNumeric(item.UnitPrice), mustNumeric(item.LineTotal),
			item.Options, item.Metadata, pos)
		if err != nil {
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, cartID string) error {
	q := querier(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	ct, err := q.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *cartRepository) loadItems(ctx context.Context, q DBTX, cartID string) ([]domain.CartLineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, variant_id, quantity, unit_price, line_total, options, metadata
		FROM cart_items WHERE cart_id = $1 ORDER BY position`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartLineItem
	for rows.Next() {
		var (
			item             domain.CartLineItem
			price, lineTotal pgtype.Numeric
		)
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID,
			&item.Quantity, &price, &lineTotal, &item.Options, &item.Metadata); err != nil {
			return nil, err
		}
		item.CartID = cartID
		item.UnitPrice = NumericToFloat64(price)
		item.LineTotal = NumericToFloat64(lineTotal)
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var (
		cart                                     domain.Cart
		subtotal, discount, shipping, tax, total pgtype.Numeric
	)
	err := row.Scan(&cart.ID, &cart.CustomerID, &cart.SessionID, &cart.CouponCode,
		&subtotal, &discount, &shipping, &tax, &total, &cart.ItemsCount,
		&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	cart.Subtotal = NumericToFloat64(subtotal)
	cart.DiscountAmount = NumericToFloat64(discount)
	cart.ShippingCost = NumericToFloat64(shipping)
	cart.TaxAmount = NumericToFloat64(tax)
	cart.Total = NumericToFloat64(total)
	return &cart, nil
}
