package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type couponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) domain.CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `
	id, code, type, value, min_order_amount, max_discount,
	usage_limit, usage_per_customer, starts_at, expires_at,
	included_products, excluded_products,
	included_categories, excluded_categories,
	included_brands, excluded_brands, customer_groups,
	first_purchase_only, is_active, used_count,
	created_at, updated_at`

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	q := querier(ctx, r.db)
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	_, err := q.Exec(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		coupon.ID, coupon.Code, coupon.Type,
		mustNumeric(coupon.Value), mustNumeric(coupon.MinOrderAmount), coupon.MaxDiscount,
		coupon.UsageLimit, coupon.UsagePerCustomer, coupon.StartsAt, coupon.ExpiresAt,
		coupon.IncludedProducts, coupon.ExcludedProducts,
		coupon.IncludedCategories, coupon.ExcludedCategories,
		coupon.IncludedBrands, coupon.ExcludedBrands, coupon.CustomerGroups,
		coupon.FirstPurchaseOnly, coupon.IsActive, coupon.UsedCount,
		coupon.CreatedAt, coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	q := querier(ctx, r.db)
	row := q.QueryRow(ctx, `SELECT`+couponColumns+` FROM coupons WHERE code = $1`, code)
	return scanCoupon(row)
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	q := querier(ctx, r.db)
	row := q.QueryRow(ctx, `SELECT`+couponColumns+` FROM coupons WHERE id = $1`, id)
	return scanCoupon(row)
}

func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]domain.Coupon, error) {
	q := querier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT`+couponColumns+` FROM coupons
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *couponRepository) Count(ctx context.Context) (int64, error) {
	q := querier(ctx, r.db)
	var count int64
	err := q.QueryRow(ctx, `SELECT count(*) FROM coupons`).Scan(&count)
	return count, err
}

func (r *couponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	q := querier(ctx, r.db)
	ct, err := q.Exec(ctx, `
		UPDATE coupons SET
			code = $2, type = $3, value = $4, min_order_amount = $5, max_discount = $6,
			usage_limit = $7, usage_per_customer = $8, starts_at = $9, expires_at = $10,
			included_products = $11, excluded_products = $12,
			included_categories = $13, excluded_categories = $14,
			included_brands = $15, excluded_brands = $16, customer_groups = $17,
			first_purchase_only = $18, is_active = $19, updated_at = $20
		WHERE id = $1`,
		coupon.ID, coupon.Code, coupon.Type,
		mustNumeric(coupon.Value), mustNumeric(coupon.MinOrderAmount), coupon.MaxDiscount,
		coupon.UsageLimit, coupon.UsagePerCustomer, coupon.StartsAt, coupon.ExpiresAt,
		coupon.IncludedProducts, coupon.ExcludedProducts,
		coupon.IncludedCategories, coupon.ExcludedCategories,
		coupon.IncludedBrands, coupon.ExcludedBrands, coupon.CustomerGroups,
		coupon.FirstPurchaseOnly, coupon.IsActive, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	q := querier(ctx, r.db)
	ct, err := q.Exec(ctx,
		`UPDATE coupons SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *couponRepository) RecordUsage(ctx context.Context, usage *domain.CouponUsage) error {
	q := querier(ctx, r.db)

	if usage.ID == "" {
		usage.ID = utils.GenerateUUID()
	}
	ct, err := q.Exec(ctx, `
		INSERT INTO coupon_usages (id, coupon_id, customer_id, order_id, discount_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coupon_id, order_id) DO NOTHING`,
		usage.ID, usage.CouponID, usage.CustomerID, usage.OrderID,
		mustNumeric(usage.DiscountAmount), time.Now())
	if err != nil {
		return fmt.Errorf("failed to record coupon usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrDuplicateCouponUsage
	}

	// Increment stays inside the caller's transaction, so a limit breach
	// rolls the usage row back with it.
	ct, err = q.Exec(ctx, `
		UPDATE coupons SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
		usage.CouponID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("coupon %s usage limit reached", usage.CouponID)
	}
	return nil
}

func (r *couponRepository) DeleteUsage(ctx context.Context, couponID uuid.UUID, orderID string) error {
	q := querier(ctx, r.db)
	ct, err := q.Exec(ctx,
		`DELETE FROM coupon_usages WHERE coupon_id = $1 AND order_id = $2`,
		couponID, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	_, err = q.Exec(ctx, `
		UPDATE coupons SET used_count = greatest(used_count - 1, 0), updated_at = $2
		WHERE id = $1`, couponID, time.Now())
	return err
}

func (r *couponRepository) GetUsageByOrder(ctx context.Context, orderID string) (*domain.CouponUsage, error) {
	q := querier(ctx, r.db)
	var (
		usage  domain.CouponUsage
		amount pgtype.Numeric
	)
	err := q.QueryRow(ctx, `
		SELECT id, coupon_id, customer_id, order_id, discount_amount, created_at
		FROM coupon_usages WHERE order_id = $1`, orderID).
		Scan(&usage.ID, &usage.CouponID, &usage.CustomerID, &usage.OrderID,
			&amount, &usage.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	usage.DiscountAmount = NumericToFloat64(amount)
	return &usage, nil
}

func (r *couponRepository) CountUsageByCustomer(ctx context.Context, couponID uuid.UUID, customerID string) (int, error) {
	q := querier(ctx, r.db)
	var count int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM coupon_usages WHERE coupon_id = $1 AND customer_id = $2`,
		couponID, customerID).Scan(&count)
	return count, err
}

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var (
		c               domain.Coupon
		value, minOrder pgtype.Numeric
		maxDiscount     pgtype.Numeric
	)
	err := row.Scan(&c.ID, &c.Code, &c.Type, &value, &minOrder, &maxDiscount,
		&c.UsageLimit, &c.UsagePerCustomer, &c.StartsAt, &c.ExpiresAt,
		&c.IncludedProducts, &c.ExcludedProducts,
		&c.IncludedCategories, &c.ExcludedCategories,
		&c.IncludedBrands, &c.ExcludedBrands, &c.CustomerGroups,
		&c.FirstPurchaseOnly, &c.IsActive, &c.UsedCount,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.Value = NumericToFloat64(value)
	c.MinOrderAmount = NumericToFloat64(minOrder)
	if maxDiscount.Valid {
		md := NumericToFloat64(maxDiscount)
		c.MaxDiscount = &md
	}
	return &c, nil
}
