package domain

import (
	"context"
	"time"
)

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductFacts is the read-only slice of catalog data the core needs for
// pricing, stock checks and coupon eligibility. Catalog content management
// itself lives outside this module.
type ProductFacts struct {
	ProductID   string
	VariantID   *string
	Name        string
	SKU         string
	Brand       string
	CategoryIDs []string
	Price       float64 // final price after catalog-level sales
	Purchasable bool
	TracksStock bool
	Available   int
}

type CatalogGateway interface {
	GetFacts(ctx context.Context, productID string, variantID *string) (*ProductFacts, error)
	IsPurchasable(ctx context.Context, productID string, variantID *string) (bool, error)
	AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error)
	FinalPrice(ctx context.Context, productID string, variantID *string) (float64, error)
}

// StockMovement is the ledger row written by every reserve/restore call.
type StockMovement struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	VariantID    *string   `json:"variantId"`
	ChangeAmount int       `json:"changeAmount"` // negative = reservation
	Reason       string    `json:"reason"`
	ReferenceID  string    `json:"referenceId"` // order number
	CreatedAt    time.Time `json:"createdAt"`
}

// Stock movement reasons.
const (
	StockReasonOrderPlaced  = "order_placed"
	StockReasonCancellation = "cancellation"
)

type InventoryRepository interface {
	// Reserve decrements available quantity by qty as a conditional,
	// race-safe update (never a read-then-write pair) and writes a ledger
	// movement. Returns ErrInsufficientStock when the decrement would go
	// below zero.
	Reserve(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error
	// Restore increments available quantity and writes a compensating
	// movement.
	Restore(ctx context.Context, productID string, variantID *string, qty int, reason, referenceID string) error
	AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error)
	MovementsByReference(ctx context.Context, referenceID string) ([]StockMovement, error)
}

// ShippingQuoter supplies shipping cost and tax for an address. The cart
// merely carries the quoted values; computing them is out of scope here.
type ShippingQuoter interface {
	Quote(ctx context.Context, address JSONB, items []CartLineItem) (shippingCost, taxAmount float64, err error)
}

// Notification event types emitted after the transactional core commits.
const (
	EventOrderCreated   = "order.created"
	EventOrderConfirmed = "order.confirmed"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
)

type NotificationEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	Payload     JSONB     `json:"payload,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NotificationDispatcher delivers events fire-and-forget; failures never
// roll back committed order state.
type NotificationDispatcher interface {
	Dispatch(event NotificationEvent)
}
