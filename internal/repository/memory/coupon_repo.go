package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"shopcore-backend/internal/domain"
)

type couponRepository struct {
	store *Store
}

func NewCouponRepository(store *Store) domain.CouponRepository {
	return &couponRepository{store: store}
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.couponIDByCode[coupon.Code]; exists {
		return fmt.Errorf("coupon code %s already exists", coupon.Code)
	}
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	now := time.Now().UTC()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	s.coupons[coupon.ID] = cloneCoupon(coupon)
	s.couponIDByCode[coupon.Code] = coupon.ID
	return nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.couponIDByCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCoupon(s.coupons[id]), nil
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, ok := s.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCoupon(coupon), nil
}

func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]domain.Coupon, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		all = append(all, *cloneCoupon(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *couponRepository) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.coupons)), nil
}

func (r *couponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.coupons[coupon.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Code != coupon.Code {
		delete(s.couponIDByCode, existing.Code)
		s.couponIDByCode[coupon.Code] = coupon.ID
	}
	stored := cloneCoupon(coupon)
	stored.UpdatedAt = time.Now().UTC()
	s.coupons[coupon.ID] = stored
	return nil
}

func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, ok := s.coupons[id]
	if !ok {
		return domain.ErrNotFound
	}
	coupon.IsActive = active
	coupon.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *couponRepository) RecordUsage(ctx context.Context, usage *domain.CouponUsage) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, ok := s.coupons[usage.CouponID]
	if !ok {
		return domain.ErrNotFound
	}

	key := usageKey(usage.CouponID, usage.OrderID)
	if _, exists := s.usages[key]; exists {
		return domain.ErrDuplicateCouponUsage
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return fmt.Errorf("coupon %s usage limit reached", coupon.Code)
	}

	coupon.UsedCount++
	s.usages[key] = *usage
	return nil
}

func (r *couponRepository) DeleteUsage(ctx context.Context, couponID uuid.UUID, orderID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey(couponID, orderID)
	if _, exists := s.usages[key]; !exists {
		return domain.ErrNotFound
	}
	delete(s.usages, key)
	if coupon, ok := s.coupons[couponID]; ok && coupon.UsedCount > 0 {
		coupon.UsedCount--
	}
	return nil
}

func (r *couponRepository) GetUsageByOrder(ctx context.Context, orderID string) (*domain.CouponUsage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usage := range s.usages {
		if usage.OrderID == orderID {
			u := usage
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *couponRepository) CountUsageByCustomer(ctx context.Context, couponID uuid.UUID, customerID string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, usage := range s.usages {
		if usage.CouponID == couponID && usage.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}
