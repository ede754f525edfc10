package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

// Rejection reasons surfaced to the caller. Failing to apply a coupon is an
// expected business outcome, never an error.
const (
	CouponReasonNotFound          = "not_found"
	CouponReasonNotUsable         = "inactive_or_expired"
	CouponReasonCustomerLimit     = "customer_limit_reached"
	CouponReasonMinimumNotMet     = "minimum_not_met"
	CouponReasonFirstPurchaseOnly = "first_purchase_only"
	CouponReasonCustomerGroup     = "customer_group_not_allowed"
	CouponReasonProducts          = "products_not_eligible"
)

// CouponEngine evaluates coupon eligibility and computes discount amounts.
// The checks themselves are pure; only usage accounting touches storage.
type CouponEngine struct {
	couponRepo domain.CouponRepository
	orderRepo  domain.OrderRepository
}

func NewCouponEngine(couponRepo domain.CouponRepository, orderRepo domain.OrderRepository) *CouponEngine {
	return &CouponEngine{couponRepo: couponRepo, orderRepo: orderRepo}
}

// IsUsable: active, inside its window, and not globally exhausted.
func (e *CouponEngine) IsUsable(c *domain.Coupon, now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// CanCustomerUse checks the per-customer limit against the customer's
// historical usage count.
func (e *CouponEngine) CanCustomerUse(c *domain.Coupon, usageCount int) bool {
	if c.UsagePerCustomer == nil {
		return true
	}
	return usageCount < *c.UsagePerCustomer
}

// IsApplicableToOrder enforces minimum amount, the first-purchase-only flag
// and the customer-group allowlist.
func (e *CouponEngine) IsApplicableToOrder(c *domain.Coupon, orderTotal float64, customerOrderCount int64, customerGroup string) bool {
	if c.MinOrderAmount > 0 && orderTotal < c.MinOrderAmount {
		return false
	}
	if c.FirstPurchaseOnly && customerOrderCount > 0 {
		return false
	}
	if len(c.CustomerGroups) > 0 && !contains(c.CustomerGroups, customerGroup) {
		return false
	}
	return true
}

// IsApplicableToProducts checks the cart's product set against the coupon's
// inclusion/exclusion lists. Exclusions are checked first and short-circuit
// to false on any match (products, then categories, then brands). If an
// inclusion list exists, the first non-empty one in priority order
// (products, categories, brands) must overlap the cart.
func (e *CouponEngine) IsApplicableToProducts(c *domain.Coupon, facts []*domain.ProductFacts) bool {
	if !c.HasProductRestrictions() {
		return true
	}

	for _, f := range facts {
		if contains(c.ExcludedProducts, f.ProductID) {
			return false
		}
		if overlaps(c.ExcludedCategories, f.CategoryIDs) {
			return false
		}
		if contains(c.ExcludedBrands, f.Brand) {
			return false
		}
	}

	switch {
	case len(c.IncludedProducts) > 0:
		for _, f := range facts {
			if contains(c.IncludedProducts, f.ProductID) {
				return true
			}
		}
		return false
	case len(c.IncludedCategories) > 0:
		for _, f := range facts {
			if overlaps(c.IncludedCategories, f.CategoryIDs) {
				return true
			}
		}
		return false
	case len(c.IncludedBrands) > 0:
		for _, f := range facts {
			if contains(c.IncludedBrands, f.Brand) {
				return true
			}
		}
		return false
	}
	return true
}

// Discount is a computed discount amount with a display description.
type Discount struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// CalculateDiscount computes the discount for a coupon against the current
// subtotal and quoted shipping cost. Amounts are rounded to 2 decimal
// places, half away from zero. An unknown type yields zero.
func (e *CouponEngine) CalculateDiscount(c *domain.Coupon, subtotal, shippingCost float64) Discount {
	switch c.Type {
	case domain.CouponTypeFixed:
		amount := c.Value
		if max := subtotal + shippingCost; amount > max {
			amount = max
		}
		return Discount{
			Amount:      domain.Round2(amount),
			Description: fmt.Sprintf("%s: %.2f off", c.Code, c.Value),
		}
	case domain.CouponTypePercentage:
		amount := subtotal * c.Value / 100
		if c.MaxDiscount != nil && amount > *c.MaxDiscount {
			amount = *c.MaxDiscount
		}
		return Discount{
			Amount:      domain.Round2(amount),
			Description: fmt.Sprintf("%s: %.0f%% off", c.Code, c.Value),
		}
	case domain.CouponTypeFreeShipping:
		// Deliberately uncapped: the full quoted shipping cost is
		// discounted regardless of MaxDiscount.
		return Discount{
			Amount:      domain.Round2(shippingCost),
			Description: fmt.Sprintf("%s: free shipping", c.Code),
		}
	}
	return Discount{}
}

// CouponDecision is the outcome of a full eligibility evaluation.
type CouponDecision struct {
	Applicable bool
	Reason     string
	Coupon     *domain.Coupon
	Discount   Discount
}

// Evaluate runs every eligibility rule for a coupon code against a cart and
// computes the resulting discount. A negative outcome is reported in the
// decision; the error return is reserved for storage failures.
func (e *CouponEngine) Evaluate(ctx context.Context, code string, cart *domain.Cart, facts []*domain.ProductFacts, customerGroup string) (*CouponDecision, error) {
	coupon, err := e.couponRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CouponDecision{Reason: CouponReasonNotFound}, nil
		}
		return nil, err
	}

	if !e.IsUsable(coupon, time.Now().UTC()) {
		return &CouponDecision{Reason: CouponReasonNotUsable, Coupon: coupon}, nil
	}

	// Per-customer checks need an identified customer; a guest cart clears
	// them here and is re-validated at checkout once the customer is known.
	var usageCount int
	var orderCount int64
	if cart.CustomerID != nil {
		usageCount, err = e.couponRepo.CountUsageByCustomer(ctx, coupon.ID, *cart.CustomerID)
		if err != nil {
			return nil, err
		}
		orderCount, err = e.orderRepo.CountByCustomer(ctx, *cart.CustomerID)
		if err != nil {
			return nil, err
		}
	}
	if !e.CanCustomerUse(coupon, usageCount) {
		return &CouponDecision{Reason: CouponReasonCustomerLimit, Coupon: coupon}, nil
	}

	if coupon.MinOrderAmount > 0 && cart.Subtotal < coupon.MinOrderAmount {
		return &CouponDecision{Reason: CouponReasonMinimumNotMet, Coupon: coupon}, nil
	}
	if coupon.FirstPurchaseOnly && orderCount > 0 {
		return &CouponDecision{Reason: CouponReasonFirstPurchaseOnly, Coupon: coupon}, nil
	}
	if len(coupon.CustomerGroups) > 0 && !contains(coupon.CustomerGroups, customerGroup) {
		return &CouponDecision{Reason: CouponReasonCustomerGroup, Coupon: coupon}, nil
	}

	if !e.IsApplicableToProducts(coupon, facts) {
		return &CouponDecision{Reason: CouponReasonProducts, Coupon: coupon}, nil
	}

	return &CouponDecision{
		Applicable: true,
		Coupon:     coupon,
		Discount:   e.CalculateDiscount(coupon, cart.Subtotal, cart.ShippingCost),
	}, nil
}

// RecordUsage appends a CouponUsage and increments the coupon's used_count.
// At most one usage per order; a duplicate is a caller error surfaced as
// ErrDuplicateCouponUsage.
func (e *CouponEngine) RecordUsage(ctx context.Context, coupon *domain.Coupon, customerID, orderID string, discountAmount float64) error {
	usage := &domain.CouponUsage{
		ID:             utils.GenerateUUID(),
		CouponID:       coupon.ID,
		CustomerID:     customerID,
		OrderID:        orderID,
		DiscountAmount: discountAmount,
		CreatedAt:      time.Now().UTC(),
	}
	return e.couponRepo.RecordUsage(ctx, usage)
}

// ReverseUsage deletes the usage recorded for an order and decrements the
// coupon's used_count. Only valid while the linked order is cancellable;
// the orchestrator guards that.
func (e *CouponEngine) ReverseUsage(ctx context.Context, orderID string) error {
	usage, err := e.couponRepo.GetUsageByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return e.couponRepo.DeleteUsage(ctx, usage.CouponID, orderID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func overlaps(list, other []string) bool {
	for _, v := range other {
		if contains(list, v) {
			return true
		}
	}
	return false
}
