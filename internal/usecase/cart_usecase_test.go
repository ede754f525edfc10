package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore-backend/internal/domain"
	"shopcore-backend/internal/repository/memory"
)

type cartFixture struct {
	uc         *CartUsecase
	couponRepo domain.CouponRepository
	catalog    *memory.Catalog
	store      *memory.Store
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	store := memory.NewStore()
	cartRepo := memory.NewCartRepository(store)
	couponRepo := memory.NewCouponRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	catalog := memory.NewCatalog(store)
	engine := NewCouponEngine(couponRepo, orderRepo)
	quoter := memory.NewZoneQuoter(memory.ShippingZone{Key: "default", Cost: 10, TaxRate: 0})

	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-1", Name: "Widget", SKU: "W-1", Brand: "acme",
		CategoryIDs: []string{"cat-a"}, Price: 100, Purchasable: true, TracksStock: true,
	}, 50)
	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-2", Name: "Gadget", SKU: "G-1", Brand: "globex",
		Price: 25.5, Purchasable: true, TracksStock: false,
	}, 0)
	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-off", Name: "Retired", SKU: "R-1",
		Price: 10, Purchasable: false, TracksStock: false,
	}, 0)

	return &cartFixture{
		uc:         NewCartUsecase(cartRepo, catalog, quoter, engine, 1000),
		couponRepo: couponRepo,
		catalog:    catalog,
		store:      store,
	}
}

func TestCartUsecase_GetOrCreateCart_StableForOwner(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	first, err := f.uc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	second, err := f.uc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestCartUsecase_AddItem(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	cart, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 2, nil)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.InDelta(t, 100.0, cart.Items[0].UnitPrice, 0.001)
	assert.InDelta(t, 200.0, cart.Subtotal, 0.001)
	assert.InDelta(t, 200.0, cart.Total, 0.001)
	assert.Equal(t, 2, cart.ItemsCount)

	// adding the same product again merges into one line
	cart, err = f.uc.AddItem(ctx, owner, "prod-1", nil, 3, nil)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.InDelta(t, 500.0, cart.Subtotal, 0.001)
}

func TestCartUsecase_AddItem_Rejections(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	_, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.uc.AddItem(ctx, owner, "prod-off", nil, 1, nil)
	assert.Error(t, err)

	_, err = f.uc.AddItem(ctx, owner, "no-such-product", nil, 1, nil)
	assert.Error(t, err)

	// advisory stock check at add time
	_, err = f.uc.AddItem(ctx, owner, "prod-1", nil, 51, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// the failed adds left the cart empty
	cart, err := f.uc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartUsecase_UpdateAndRemoveItem(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	cart, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 2, nil)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.uc.UpdateItemQuantity(ctx, owner, itemID, 4)
	require.NoError(t, err)
	assert.InDelta(t, 400.0, cart.Subtotal, 0.001)

	_, err = f.uc.UpdateItemQuantity(ctx, owner, itemID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.uc.RemoveItem(ctx, owner, "missing-item")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	cart, err = f.uc.RemoveItem(ctx, owner, itemID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Zero(t, cart.Total)
}

func TestCartUsecase_ApplyCoupon(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	require.NoError(t, f.couponRepo.Create(ctx, &domain.Coupon{
		Code: "SAVE10", Type: domain.CouponTypePercentage, Value: 10, IsActive: true,
	}))

	_, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 3, nil)
	require.NoError(t, err)

	result, err := f.uc.ApplyCoupon(ctx, owner, "SAVE10", "")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.InDelta(t, 30.0, result.DiscountAmount, 0.001)
	assert.InDelta(t, 270.0, result.NewTotal, 0.001)

	// the discount follows quantity changes
	cart, err := f.uc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	cart, err = f.uc.UpdateItemQuantity(ctx, owner, cart.Items[0].ID, 5)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, cart.DiscountAmount, 0.001)
	assert.InDelta(t, 450.0, cart.Total, 0.001)
}

func TestCartUsecase_ApplyCoupon_NotApplicableLeavesCartUnchanged(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.couponRepo.Create(ctx, &domain.Coupon{
		Code: "OLD", Type: domain.CouponTypeFixed, Value: 20, IsActive: true, ExpiresAt: &expired,
	}))

	_, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 2, nil)
	require.NoError(t, err)

	result, err := f.uc.ApplyCoupon(ctx, owner, "OLD", "")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, CouponReasonNotUsable, result.Reason)

	cart, err := f.uc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, cart.CouponCode)
	assert.Zero(t, cart.DiscountAmount)
	assert.InDelta(t, 200.0, cart.Total, 0.001)
}

func TestCartUsecase_RemoveCoupon(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	require.NoError(t, f.couponRepo.Create(ctx, &domain.Coupon{
		Code: "SAVE10", Type: domain.CouponTypePercentage, Value: 10, IsActive: true,
	}))
	_, err := f.uc.AddItem(ctx, owner, "prod-1", nil, 2, nil)
	require.NoError(t, err)
	_, err = f.uc.ApplyCoupon(ctx, owner, "SAVE10", "")
	require.NoError(t, err)

	cart, err := f.uc.RemoveCoupon(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, cart.CouponCode)
	assert.Zero(t, cart.DiscountAmount)
	assert.InDelta(t, 200.0, cart.Total, 0.001)
}

func TestCartUsecase_ApplyShippingQuote(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")

	_, err := f.uc.AddItem(ctx, owner, "prod-2", nil, 2, nil) // 51.00
	require.NoError(t, err)

	cart, err := f.uc.ApplyShippingQuote(ctx, owner, domain.JSONB{"deliveryLocation": "default"})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, cart.ShippingCost, 0.001)
	assert.InDelta(t, 61.0, cart.Total, 0.001)
}

func TestCartUsecase_MergeCarts(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.AddItem(ctx, domain.SessionOwner("sess-1"), "prod-1", nil, 2, nil)
	require.NoError(t, err)
	_, err = f.uc.AddItem(ctx, domain.SessionOwner("sess-1"), "prod-2", nil, 1, nil)
	require.NoError(t, err)
	_, err = f.uc.AddItem(ctx, domain.CustomerOwner("cust-1"), "prod-1", nil, 1, nil)
	require.NoError(t, err)

	merged, err := f.uc.MergeCarts(ctx, "sess-1", "cust-1")
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 3, merged.FindLine("prod-1", nil).Quantity)
	assert.Equal(t, 1, merged.FindLine("prod-2", nil).Quantity)
	assert.InDelta(t, 325.5, merged.Subtotal, 0.001)

	// the session cart is gone
	_, err = f.uc.GetOrCreateCart(ctx, domain.SessionOwner("sess-1"))
	require.NoError(t, err) // a fresh one is created on demand
	fresh, err := f.uc.GetOrCreateCart(ctx, domain.SessionOwner("sess-1"))
	require.NoError(t, err)
	assert.True(t, fresh.IsEmpty())
}

func TestCartUsecase_MergeCarts_NoSessionCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.AddItem(ctx, domain.CustomerOwner("cust-1"), "prod-1", nil, 2, nil)
	require.NoError(t, err)

	merged, err := f.uc.MergeCarts(ctx, "never-seen", "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 2, merged.ItemsCount)
}
