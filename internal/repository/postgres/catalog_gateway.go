package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore-backend/internal/domain"
)

// catalogGateway reads the slice of product data the pricing core needs.
// Variant rows override name, sku and price when a variant id is given.
type catalogGateway struct {
	db *pgxpool.Pool
}

func NewCatalogGateway(db *pgxpool.Pool) domain.CatalogGateway {
	return &catalogGateway{db: db}
}

func (g *catalogGateway) GetFacts(ctx context.Context, productID string, variantID *string) (*domain.ProductFacts, error) {
	q := querier(ctx, g.db)

	facts := &domain.ProductFacts{ProductID: productID, VariantID: variantID}

	var (
		price, salePrice pgtype.Numeric
	)
	err := q.QueryRow(ctx, `
		SELECT p.name, p.sku, COALESCE(p.brand, ''), p.price, p.sale_price,
		       p.is_active, p.track_stock,
		       COALESCE(array_agg(pc.category_id) FILTER (WHERE pc.category_id IS NOT NULL), '{}')
		FROM products p
		LEFT JOIN product_categories pc ON pc.product_id = p.id
		WHERE p.id = $1
		GROUP BY p.id`, productID).
		Scan(&facts.Name, &facts.SKU, &facts.Brand, &price, &salePrice,
			&facts.Purchasable, &facts.TracksStock, &facts.CategoryIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	facts.Price = NumericToFloat64(price)
	if salePrice.Valid {
		facts.Price = NumericToFloat64(salePrice)
	}

	if variantID != nil {
		var (
			vName, vSKU   *string
			vPrice        pgtype.Numeric
			vActive       bool
		)
		err := q.QueryRow(ctx, `
			SELECT name, sku, price, is_active
			FROM product_variants WHERE id = $1 AND product_id = $2`,
			*variantID, productID).
			Scan(&vName, &vSKU, &vPrice, &vActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		if vName != nil {
			facts.Name = facts.Name + " - " + *vName
		}
		if vSKU != nil {
			facts.SKU = *vSKU
		}
		if vPrice.Valid {
			facts.Price = NumericToFloat64(vPrice)
		}
		facts.Purchasable = facts.Purchasable && vActive
	}

	if facts.TracksStock {
		var qty int
		err := q.QueryRow(ctx, `
			SELECT quantity FROM inventory_stock
			WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2`,
			productID, variantID).Scan(&qty)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		facts.Available = qty
	}

	return facts, nil
}

func (g *catalogGateway) IsPurchasable(ctx context.Context, productID string, variantID *string) (bool, error) {
	facts, err := g.GetFacts(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	return facts.Purchasable, nil
}

func (g *catalogGateway) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	facts, err := g.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Available, nil
}

func (g *catalogGateway) FinalPrice(ctx context.Context, productID string, variantID *string) (float64, error) {
	facts, err := g.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Price, nil
}
