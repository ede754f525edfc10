package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore-backend/internal/domain"
	"shopcore-backend/internal/repository/memory"
)

// captureNotifier records dispatched events for assertions.
type captureNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (n *captureNotifier) Dispatch(event domain.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type orderFixture struct {
	orders     *OrderUsecase
	carts      *CartUsecase
	couponRepo domain.CouponRepository
	inventory  *memory.InventoryRepository
	catalog    *memory.Catalog
	notifier   *captureNotifier
	store      *memory.Store
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := memory.NewStore()
	cartRepo := memory.NewCartRepository(store)
	couponRepo := memory.NewCouponRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	inventory := memory.NewInventoryRepository(store)
	catalog := memory.NewCatalog(store)
	engine := NewCouponEngine(couponRepo, orderRepo)
	txManager := memory.NewTransactionManager(store)
	notifier := &captureNotifier{}
	quoter := memory.NewZoneQuoter(memory.ShippingZone{Key: "default", Cost: 0, TaxRate: 0})

	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-1", Name: "Widget", SKU: "W-1", Brand: "acme",
		Price: 100, Purchasable: true, TracksStock: true,
	}, 10)
	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-2", Name: "Gadget", SKU: "G-1", Brand: "globex",
		Price: 40, Purchasable: true, TracksStock: true,
	}, 5)
	catalog.Add(memory.CatalogProduct{
		ProductID: "prod-digital", Name: "Download", SKU: "D-1",
		Price: 15, Purchasable: true, TracksStock: false,
	}, 0)

	return &orderFixture{
		orders:     NewOrderUsecase(orderRepo, cartRepo, inventory, catalog, engine, txManager, notifier, "BDT"),
		carts:      NewCartUsecase(cartRepo, catalog, quoter, engine, 1000),
		couponRepo: couponRepo,
		inventory:  inventory,
		catalog:    catalog,
		notifier:   notifier,
		store:      store,
	}
}

func (f *orderFixture) fillCart(t *testing.T, customerID string, lines map[string]int) domain.CartOwner {
	t.Helper()
	owner := domain.CustomerOwner(customerID)
	for productID, qty := range lines {
		_, err := f.carts.AddItem(context.Background(), owner, productID, nil, qty, nil)
		require.NoError(t, err)
	}
	return owner
}

func (f *orderFixture) available(t *testing.T, productID string) int {
	t.Helper()
	qty, err := f.inventory.AvailableQuantity(context.Background(), productID, nil)
	require.NoError(t, err)
	return qty
}

func TestOrderUsecase_CreateOrderFromCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 2, "prod-digital": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, domain.JSONB{"city": "Dhaka"}, domain.JSONB{"city": "Dhaka"}, "ring the bell")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.OrderNumber)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, domain.ShippingStatusNotShipped, order.ShippingStatus)
	assert.Equal(t, "BDT", order.Currency)
	assert.InDelta(t, 215.0, order.Total, 0.001)

	// item snapshots carry name, sku and the stock-tracking flag
	require.Len(t, order.Items, 2)
	byProduct := map[string]domain.OrderItem{}
	for _, item := range order.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, "Widget", byProduct["prod-1"].ProductName)
	assert.Equal(t, "W-1", byProduct["prod-1"].SKU)
	assert.True(t, byProduct["prod-1"].TracksStock)
	assert.False(t, byProduct["prod-digital"].TracksStock)

	// only the tracked item consumed stock
	assert.Equal(t, 8, f.available(t, "prod-1"))
	movements, err := f.inventory.MovementsByReference(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -2, movements[0].ChangeAmount)
	assert.Equal(t, domain.StockReasonOrderPlaced, movements[0].Reason)

	// the cart was cleared in the same transaction
	cart, err := f.carts.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// one pending history row, system actor
	history, err := f.orders.GetOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPending, history[0].Status)
	assert.Nil(t, history[0].ActorID)

	assert.Equal(t, []string{domain.EventOrderCreated}, f.notifier.types())
}

func TestOrderUsecase_CreateOrderFromCart_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.carts.GetOrCreateCart(ctx, domain.CustomerOwner("cust-1"))
	require.NoError(t, err)

	_, err = f.orders.CreateOrderFromCart(ctx, domain.CustomerOwner("cust-1"), nil, nil, "")
	var invalid *domain.CartInvalidError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Issues, 1)
	assert.Equal(t, domain.CartIssueEmpty, invalid.Issues[0].Reason)
	assert.Zero(t, f.inventory.MovementCount())
}

func TestOrderUsecase_CreateOrderFromCart_GuestCartRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := domain.SessionOwner("sess-1")

	_, err := f.carts.AddItem(ctx, owner, "prod-1", nil, 1, nil)
	require.NoError(t, err)

	_, err = f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	assert.Error(t, err)
	assert.Zero(t, f.inventory.MovementCount())
}

func TestOrderUsecase_CreateOrderFromCart_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-2": 5})

	// stock drops to 3 after the cart was filled
	f.inventory.SetStock("prod-2", nil, 3)

	_, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	var invalid *domain.CartInvalidError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Issues, 1)
	assert.Equal(t, domain.CartIssueOutOfStock, invalid.Issues[0].Reason)
	assert.Equal(t, 5, invalid.Issues[0].Requested)
	assert.Equal(t, 3, invalid.Issues[0].Available)

	// validation failed before any write
	assert.Equal(t, 3, f.available(t, "prod-2"))
	assert.Zero(t, f.inventory.MovementCount())

	// the cart survives for the customer to fix
	cart, err := f.carts.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.ItemsCount)
}

// staticCatalog reports fixed facts regardless of live stock, so a
// reservation conflict can surface inside the transaction instead of at
// validation time.
type staticCatalog struct {
	facts map[string]*domain.ProductFacts
}

func (c *staticCatalog) GetFacts(ctx context.Context, productID string, variantID *string) (*domain.ProductFacts, error) {
	f, ok := c.facts[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (c *staticCatalog) IsPurchasable(ctx context.Context, productID string, variantID *string) (bool, error) {
	f, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	return f.Purchasable, nil
}

func (c *staticCatalog) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	f, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return f.Available, nil
}

func (c *staticCatalog) FinalPrice(ctx context.Context, productID string, variantID *string) (float64, error) {
	f, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return f.Price, nil
}

func TestOrderUsecase_CreateOrderFromCart_ReservationFailureRollsBack(t *testing.T) {
	store := memory.NewStore()
	cartRepo := memory.NewCartRepository(store)
	couponRepo := memory.NewCouponRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	inventory := memory.NewInventoryRepository(store)
	engine := NewCouponEngine(couponRepo, orderRepo)
	txManager := memory.NewTransactionManager(store)
	notifier := &captureNotifier{}

	// the catalog claims one unit of prod-b is available, but the ledger
	// says zero: the advisory check passes and Reserve fails in the tx
	catalog := &staticCatalog{facts: map[string]*domain.ProductFacts{
		"prod-a": {ProductID: "prod-a", Name: "A", SKU: "A-1", Price: 100, Purchasable: true, TracksStock: true, Available: 10},
		"prod-b": {ProductID: "prod-b", Name: "B", SKU: "B-1", Price: 50, Purchasable: true, TracksStock: true, Available: 1},
	}}
	inventory.SetStock("prod-a", nil, 10)
	inventory.SetStock("prod-b", nil, 0)

	orders := NewOrderUsecase(orderRepo, cartRepo, inventory, catalog, engine, txManager, notifier, "BDT")
	quoter := memory.NewZoneQuoter(memory.ShippingZone{})
	carts := NewCartUsecase(cartRepo, catalog, quoter, engine, 1000)

	ctx := context.Background()
	owner := domain.CustomerOwner("cust-1")
	_, err := carts.AddItem(ctx, owner, "prod-a", nil, 2, nil)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, owner, "prod-b", nil, 1, nil)
	require.NoError(t, err)

	_, err = orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// everything the transaction touched was rolled back
	qty, err := inventory.AvailableQuantity(ctx, "prod-a", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
	assert.Zero(t, inventory.MovementCount())

	cart, err := carts.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemsCount)

	orderList, err := orderRepo.ListByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	assert.Empty(t, orderList)
	assert.Empty(t, notifier.types())
}

func TestOrderUsecase_CreateOrderFromCart_ConcurrentLastUnit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	f.inventory.SetStock("prod-1", nil, 1)

	ownerA := f.fillCart(t, "cust-a", map[string]int{"prod-1": 1})
	ownerB := f.fillCart(t, "cust-b", map[string]int{"prod-1": 1})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, owner := range []domain.CartOwner{ownerA, ownerB} {
		wg.Add(1)
		go func(i int, owner domain.CartOwner) {
			defer wg.Done()
			_, errs[i] = f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
		}(i, owner)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one order takes the last unit")
	assert.Equal(t, 0, f.available(t, "prod-1"))
}

func TestOrderUsecase_CreateOrderFromCart_RecordsCouponUsage(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	require.NoError(t, f.couponRepo.Create(ctx, &domain.Coupon{
		Code: "SAVE30", Type: domain.CouponTypeFixed, Value: 30, IsActive: true,
	}))
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 2})
	result, err := f.carts.ApplyCoupon(ctx, owner, "SAVE30", "")
	require.NoError(t, err)
	require.True(t, result.Applied)

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	assert.InDelta(t, 30.0, order.DiscountAmount, 0.001)
	assert.InDelta(t, 170.0, order.Total, 0.001)

	usage, err := f.couponRepo.GetUsageByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", usage.CustomerID)
	assert.InDelta(t, 30.0, usage.DiscountAmount, 0.001)

	coupon, err := f.couponRepo.GetByCode(ctx, "SAVE30")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestOrderUsecase_CancelOrder_RestoresStockAndCoupon(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	require.NoError(t, f.couponRepo.Create(ctx, &domain.Coupon{
		Code: "SAVE30", Type: domain.CouponTypeFixed, Value: 30, IsActive: true,
	}))
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 3, "prod-2": 1})
	_, err := f.carts.ApplyCoupon(ctx, owner, "SAVE30", "")
	require.NoError(t, err)

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 7, f.available(t, "prod-1"))
	assert.Equal(t, 4, f.available(t, "prod-2"))

	actor := "admin-1"
	cancelled, err := f.orders.CancelOrder(ctx, order.ID, "customer changed mind", &actor)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// every tracked unit came back
	assert.Equal(t, 10, f.available(t, "prod-1"))
	assert.Equal(t, 5, f.available(t, "prod-2"))

	// compensating ledger rows reference the same order number
	movements, err := f.inventory.MovementsByReference(ctx, order.OrderNumber)
	require.NoError(t, err)
	restored := 0
	for _, m := range movements {
		if m.Reason == domain.StockReasonCancellation {
			restored += m.ChangeAmount
		}
	}
	assert.Equal(t, 4, restored)

	// the coupon was handed back
	_, err = f.couponRepo.GetUsageByOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	coupon, err := f.couponRepo.GetByCode(ctx, "SAVE30")
	require.NoError(t, err)
	assert.Zero(t, coupon.UsedCount)

	// exactly one cancellation history row, attributed to the actor
	history, err := f.orders.GetOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	var cancelRows []domain.OrderStatusHistory
	for _, h := range history {
		if h.Status == domain.OrderStatusCancelled {
			cancelRows = append(cancelRows, h)
		}
	}
	require.Len(t, cancelRows, 1)
	assert.Equal(t, "customer changed mind", cancelRows[0].Note)
	require.NotNil(t, cancelRows[0].ActorID)
	assert.Equal(t, "admin-1", *cancelRows[0].ActorID)

	assert.Equal(t, []string{domain.EventOrderCreated, domain.EventOrderCancelled}, f.notifier.types())
}

func TestOrderUsecase_CancelOrder_PaidOrderRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	_, err = f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusPaid, strPtr("txn-1"), nil)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, order.ID, "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// nothing was restored
	assert.Equal(t, 9, f.available(t, "prod-1"))
}

func TestOrderUsecase_UpdatePaymentStatus_PaidAutoConfirms(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	updated, err := f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusPaid, strPtr("txn-9"), domain.JSONB{"provider": "bkash"})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	require.NotNil(t, updated.ConfirmedAt)
	require.NotNil(t, updated.PaymentTransactionID)
	assert.Equal(t, "txn-9", *updated.PaymentTransactionID)

	history, err := f.orders.GetOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2) // created, auto-confirm
	assert.Equal(t, "auto-confirmed on payment", history[1].Note)
	for _, h := range history {
		if h.PreviousStatus != nil {
			assert.NotEqual(t, h.Status, *h.PreviousStatus)
		}
	}

	assert.Contains(t, f.notifier.types(), domain.EventOrderConfirmed)
}

func TestOrderUsecase_UpdatePaymentStatus_Transitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	// same status is a no-op
	same, err := f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusPending, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, same.PaymentStatus)

	// unknown status is rejected
	_, err = f.orders.UpdatePaymentStatus(ctx, order.ID, "gifted", nil, nil)
	assert.Error(t, err)

	// disallowed edge is rejected
	_, err = f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusRefunded, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// a payment change that leaves the order status alone writes no
	// status history row
	failed, err := f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusFailed, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, failed.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, failed.Status)

	history, err := f.orders.GetOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPending, history[0].Status)
}

func TestOrderUsecase_ShipAndDeliverFlow(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	// shipping an unpaid order is rejected
	_, err = f.orders.ShipOrder(ctx, order.ID, strPtr("TRK-1"), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusPaid, strPtr("txn-1"), nil)
	require.NoError(t, err)

	shipped, err := f.orders.ShipOrder(ctx, order.ID, strPtr("TRK-1"), strPtr("https://track.example/TRK-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, shipped.Status)
	assert.Equal(t, domain.ShippingStatusShipped, shipped.ShippingStatus)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Equal(t, "TRK-1", *shipped.TrackingNumber)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := f.orders.DeliverOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, domain.ShippingStatusDelivered, delivered.ShippingStatus)
	require.NotNil(t, delivered.DeliveredAt)

	// delivering twice is rejected: the parcel is no longer in flight
	_, err = f.orders.DeliverOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, []string{
		domain.EventOrderCreated,
		domain.EventOrderConfirmed,
		domain.EventOrderShipped,
		domain.EventOrderDelivered,
	}, f.notifier.types())
}

func TestOrderUsecase_ConfirmOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.fillCart(t, "cust-1", map[string]int{"prod-1": 1})

	order, err := f.orders.CreateOrderFromCart(ctx, owner, nil, nil, "")
	require.NoError(t, err)

	confirmed, err := f.orders.ConfirmOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// confirming twice is rejected
	_, err = f.orders.ConfirmOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOrderUsecase_Queries(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	ownerA := f.fillCart(t, "cust-a", map[string]int{"prod-1": 1})
	orderA, err := f.orders.CreateOrderFromCart(ctx, ownerA, nil, nil, "")
	require.NoError(t, err)
	ownerB := f.fillCart(t, "cust-b", map[string]int{"prod-2": 1})
	_, err = f.orders.CreateOrderFromCart(ctx, ownerB, nil, nil, "")
	require.NoError(t, err)

	byNumber, err := f.orders.GetOrderByNumber(ctx, orderA.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, orderA.ID, byNumber.ID)

	mine, err := f.orders.GetMyOrders(ctx, "cust-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, orderA.ID, mine[0].ID)

	all, page, err := f.orders.ListOrders(ctx, domain.OrderFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, all, 2)

	pending, page, err := f.orders.ListOrders(ctx, domain.OrderFilter{Page: 1, Limit: 10, Status: domain.OrderStatusPending, CustomerID: "cust-b"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)
	require.Len(t, pending, 1)
	assert.Equal(t, "cust-b", pending[0].CustomerID)
}
