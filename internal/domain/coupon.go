package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Coupon discount types.
const (
	CouponTypeFixed        = "fixed"
	CouponTypePercentage   = "percentage"
	CouponTypeFreeShipping = "free_shipping"
)

var CouponTypes = []string{CouponTypeFixed, CouponTypePercentage, CouponTypeFreeShipping}

type Coupon struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"` // unique, stored uppercase
	Type           string     `json:"type"`
	Value          float64    `json:"value"`
	MinOrderAmount float64    `json:"minOrderAmount"`
	MaxDiscount    *float64   `json:"maxDiscount"` // percentage type only
	UsageLimit     *int       `json:"usageLimit"`  // global; nil = unlimited
	UsagePerCustomer *int     `json:"usagePerCustomer"`
	StartsAt       *time.Time `json:"startsAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`

	// Eligibility lists. Empty slices mean no restriction on that axis.
	IncludedProducts   []string `json:"includedProducts"`
	ExcludedProducts   []string `json:"excludedProducts"`
	IncludedCategories []string `json:"includedCategories"`
	ExcludedCategories []string `json:"excludedCategories"`
	IncludedBrands     []string `json:"includedBrands"`
	ExcludedBrands     []string `json:"excludedBrands"`
	CustomerGroups     []string `json:"customerGroups"` // allowlist; empty = all

	FirstPurchaseOnly bool `json:"firstPurchaseOnly"`
	IsActive          bool `json:"isActive"`
	UsedCount         int  `json:"usedCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasProductRestrictions reports whether any inclusion/exclusion list is set.
func (c *Coupon) HasProductRestrictions() bool {
	return len(c.IncludedProducts) > 0 || len(c.ExcludedProducts) > 0 ||
		len(c.IncludedCategories) > 0 || len(c.ExcludedCategories) > 0 ||
		len(c.IncludedBrands) > 0 || len(c.ExcludedBrands) > 0
}

// CouponUsage is the immutable record of one order-level coupon
// application. Unique per (coupon, order).
type CouponUsage struct {
	ID             string    `json:"id"`
	CouponID       uuid.UUID `json:"couponId"`
	CustomerID     string    `json:"customerId"`
	OrderID        string    `json:"orderId"`
	DiscountAmount float64   `json:"discountAmount"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	List(ctx context.Context, limit, offset int) ([]Coupon, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, coupon *Coupon) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// RecordUsage appends a CouponUsage and atomically increments the
	// coupon's used_count, honoring the usage limit. Returns
	// ErrDuplicateCouponUsage if a usage for the same (coupon, order)
	// already exists.
	RecordUsage(ctx context.Context, usage *CouponUsage) error
	// DeleteUsage reverses a recorded usage and decrements used_count.
	DeleteUsage(ctx context.Context, couponID uuid.UUID, orderID string) error
	GetUsageByOrder(ctx context.Context, orderID string) (*CouponUsage, error)
	CountUsageByCustomer(ctx context.Context, couponID uuid.UUID, customerID string) (int, error)
}
