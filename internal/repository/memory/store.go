// Package memory provides in-memory implementations of the domain
// repositories. They back the usecase tests and local development; the
// transaction manager gives them the same all-or-nothing semantics as the
// Postgres implementations by snapshotting state.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"shopcore-backend/internal/domain"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex // held for the duration of a unit of work

	carts       map[string]*domain.Cart // owner key -> cart
	cartOwnerByID map[string]string

	coupons        map[uuid.UUID]*domain.Coupon
	couponIDByCode map[string]uuid.UUID
	usages         map[string]domain.CouponUsage // couponID|orderID

	orders          map[string]*domain.Order
	orderIDByNumber map[string]string
	histories       map[string][]domain.OrderStatusHistory

	stock     map[string]int // productID|variantID -> available
	movements []domain.StockMovement
}

func NewStore() *Store {
	return &Store{
		carts:           make(map[string]*domain.Cart),
		cartOwnerByID:   make(map[string]string),
		coupons:         make(map[uuid.UUID]*domain.Coupon),
		couponIDByCode:  make(map[string]uuid.UUID),
		usages:          make(map[string]domain.CouponUsage),
		orders:          make(map[string]*domain.Order),
		orderIDByNumber: make(map[string]string),
		histories:       make(map[string][]domain.OrderStatusHistory),
		stock:           make(map[string]int),
	}
}

func stockKey(productID string, variantID *string) string {
	if variantID != nil {
		return productID + "|" + *variantID
	}
	return productID
}

func usageKey(couponID uuid.UUID, orderID string) string {
	return couponID.String() + "|" + orderID
}

// --- snapshot / restore (transaction support) ---

type storeState struct {
	carts           map[string]*domain.Cart
	cartOwnerByID   map[string]string
	coupons         map[uuid.UUID]*domain.Coupon
	couponIDByCode  map[string]uuid.UUID
	usages          map[string]domain.CouponUsage
	orders          map[string]*domain.Order
	orderIDByNumber map[string]string
	histories       map[string][]domain.OrderStatusHistory
	stock           map[string]int
	movements       []domain.StockMovement
}

func (s *Store) snapshot() *storeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &storeState{
		carts:           make(map[string]*domain.Cart, len(s.carts)),
		cartOwnerByID:   make(map[string]string, len(s.cartOwnerByID)),
		coupons:         make(map[uuid.UUID]*domain.Coupon, len(s.coupons)),
		couponIDByCode:  make(map[string]uuid.UUID, len(s.couponIDByCode)),
		usages:          make(map[string]domain.CouponUsage, len(s.usages)),
		orders:          make(map[string]*domain.Order, len(s.orders)),
		orderIDByNumber: make(map[string]string, len(s.orderIDByNumber)),
		histories:       make(map[string][]domain.OrderStatusHistory, len(s.histories)),
		stock:           make(map[string]int, len(s.stock)),
		movements:       append([]domain.StockMovement(nil), s.movements...),
	}
	for k, v := range s.carts {
		st.carts[k] = cloneCart(v)
	}
	for k, v := range s.cartOwnerByID {
		st.cartOwnerByID[k] = v
	}
	for k, v := range s.coupons {
		st.coupons[k] = cloneCoupon(v)
	}
	for k, v := range s.couponIDByCode {
		st.couponIDByCode[k] = v
	}
	for k, v := range s.usages {
		st.usages[k] = v
	}
	for k, v := range s.orders {
		st.orders[k] = cloneOrder(v)
	}
	for k, v := range s.orderIDByNumber {
		st.orderIDByNumber[k] = v
	}
	for k, v := range s.histories {
		st.histories[k] = append([]domain.OrderStatusHistory(nil), v...)
	}
	for k, v := range s.stock {
		st.stock[k] = v
	}
	return st
}

func (s *Store) restore(st *storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts = st.carts
	s.cartOwnerByID = st.cartOwnerByID
	s.coupons = st.coupons
	s.couponIDByCode = st.couponIDByCode
	s.usages = st.usages
	s.orders = st.orders
	s.orderIDByNumber = st.orderIDByNumber
	s.histories = st.histories
	s.stock = st.stock
	s.movements = st.movements
}

// --- clone helpers (repos hand out copies, never internal pointers) ---

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartLineItem(nil), c.Items...)
	for i := range out.Items {
		out.Items[i].Options = out.Items[i].Options.Clone()
		out.Items[i].Metadata = out.Items[i].Metadata.Clone()
	}
	return &out
}

func cloneCoupon(c *domain.Coupon) *domain.Coupon {
	out := *c
	out.IncludedProducts = append([]string(nil), c.IncludedProducts...)
	out.ExcludedProducts = append([]string(nil), c.ExcludedProducts...)
	out.IncludedCategories = append([]string(nil), c.IncludedCategories...)
	out.ExcludedCategories = append([]string(nil), c.ExcludedCategories...)
	out.IncludedBrands = append([]string(nil), c.IncludedBrands...)
	out.ExcludedBrands = append([]string(nil), c.ExcludedBrands...)
	out.CustomerGroups = append([]string(nil), c.CustomerGroups...)
	return &out
}

func cloneOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	for i := range out.Items {
		out.Items[i].Options = out.Items[i].Options.Clone()
	}
	out.BillingAddress = o.BillingAddress.Clone()
	out.ShippingAddress = o.ShippingAddress.Clone()
	out.PaymentDetails = o.PaymentDetails.Clone()
	return &out
}
