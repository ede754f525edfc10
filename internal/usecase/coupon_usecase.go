package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopcore-backend/internal/domain"
)

// CouponUsecase handles operator coupon management. Eligibility evaluation
// lives in CouponEngine; this is CRUD plus validation.
type CouponUsecase struct {
	couponRepo domain.CouponRepository
}

func NewCouponUsecase(couponRepo domain.CouponRepository) *CouponUsecase {
	return &CouponUsecase{couponRepo: couponRepo}
}

// CouponRequest represents operator input for creating or updating a coupon.
type CouponRequest struct {
	Code             string   `json:"code"`
	Type             string   `json:"type"` // fixed, percentage, free_shipping
	Value            float64  `json:"value"`
	MinOrderAmount   float64  `json:"minOrderAmount"`
	MaxDiscount      *float64 `json:"maxDiscount"`
	UsageLimit       *int     `json:"usageLimit"`
	UsagePerCustomer *int     `json:"usagePerCustomer"`
	StartsAt         string   `json:"startsAt"`  // ISO8601
	ExpiresAt        string   `json:"expiresAt"` // ISO8601

	IncludedProducts   []string `json:"includedProducts"`
	ExcludedProducts   []string `json:"excludedProducts"`
	IncludedCategories []string `json:"includedCategories"`
	ExcludedCategories []string `json:"excludedCategories"`
	IncludedBrands     []string `json:"includedBrands"`
	ExcludedBrands     []string `json:"excludedBrands"`
	CustomerGroups     []string `json:"customerGroups"`

	FirstPurchaseOnly bool `json:"firstPurchaseOnly"`
	IsActive          bool `json:"isActive"`
}

func (req *CouponRequest) validate() (string, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", fmt.Errorf("coupon code is required")
	}

	valid := false
	for _, t := range domain.CouponTypes {
		if req.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("coupon type must be one of %s", strings.Join(domain.CouponTypes, ", "))
	}

	if req.Type != domain.CouponTypeFreeShipping && req.Value <= 0 {
		return "", fmt.Errorf("coupon value must be greater than 0")
	}
	if req.Type == domain.CouponTypePercentage && req.Value > 100 {
		return "", fmt.Errorf("percentage discount cannot exceed 100%%")
	}
	if req.MaxDiscount != nil && req.Type != domain.CouponTypePercentage {
		return "", fmt.Errorf("maximum discount only applies to percentage coupons")
	}
	return code, nil
}

func (req *CouponRequest) apply(c *domain.Coupon) error {
	code, err := req.validate()
	if err != nil {
		return err
	}
	c.Code = code
	c.Type = req.Type
	c.Value = req.Value
	c.MinOrderAmount = req.MinOrderAmount
	c.MaxDiscount = req.MaxDiscount
	c.UsageLimit = req.UsageLimit
	c.UsagePerCustomer = req.UsagePerCustomer
	c.IncludedProducts = req.IncludedProducts
	c.ExcludedProducts = req.ExcludedProducts
	c.IncludedCategories = req.IncludedCategories
	c.ExcludedCategories = req.ExcludedCategories
	c.IncludedBrands = req.IncludedBrands
	c.ExcludedBrands = req.ExcludedBrands
	c.CustomerGroups = req.CustomerGroups
	c.FirstPurchaseOnly = req.FirstPurchaseOnly
	c.IsActive = req.IsActive

	c.StartsAt = nil
	c.ExpiresAt = nil
	if req.StartsAt != "" {
		if t, err := parseISO8601(req.StartsAt); err == nil {
			c.StartsAt = &t
		}
	}
	if req.ExpiresAt != "" {
		if t, err := parseISO8601(req.ExpiresAt); err == nil {
			c.ExpiresAt = &t
		}
	}
	return nil
}

func (uc *CouponUsecase) CreateCoupon(ctx context.Context, req CouponRequest) (*domain.Coupon, error) {
	coupon := &domain.Coupon{}
	if err := req.apply(coupon); err != nil {
		return nil, err
	}

	existing, _ := uc.couponRepo.GetByCode(ctx, coupon.Code)
	if existing != nil {
		return nil, fmt.Errorf("coupon code '%s' already exists", coupon.Code)
	}

	if err := uc.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (uc *CouponUsecase) ListCoupons(ctx context.Context, page, limit int) ([]domain.Coupon, *domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	coupons, err := uc.couponRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	total, err := uc.couponRepo.Count(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count coupons: %w", err)
	}
	return coupons, domain.NewPagination(page, limit, total), nil
}

func (uc *CouponUsecase) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon ID")
	}
	coupon, err := uc.couponRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("coupon not found")
	}
	return coupon, nil
}

func (uc *CouponUsecase) UpdateCoupon(ctx context.Context, id string, req CouponRequest) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid coupon ID")
	}
	existing, err := uc.couponRepo.GetByID(ctx, uid)
	if err != nil {
		return fmt.Errorf("coupon not found")
	}

	prevCode := existing.Code
	if err := req.apply(existing); err != nil {
		return err
	}
	if existing.Code != prevCode {
		dup, _ := uc.couponRepo.GetByCode(ctx, existing.Code)
		if dup != nil {
			return fmt.Errorf("coupon code '%s' already exists", existing.Code)
		}
	}
	return uc.couponRepo.Update(ctx, existing)
}

// DeactivateCoupon soft-deactivates a coupon. Coupons with recorded usage
// are never hard-deleted; the usage history must stay auditable.
func (uc *CouponUsecase) DeactivateCoupon(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid coupon ID")
	}
	if _, err := uc.couponRepo.GetByID(ctx, uid); err != nil {
		return fmt.Errorf("coupon not found")
	}
	return uc.couponRepo.SetActive(ctx, uid, false)
}

// parseISO8601 parses an ISO8601 date string, accepting a few common
// variants.
func parseISO8601(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format")
}
