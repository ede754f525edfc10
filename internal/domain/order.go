package domain

import (
	"context"
	"time"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CustomerID    string
	Search        string
}

// Order is the immutable commercial record created from a cart snapshot.
// Items are never removed after creation; corrections happen through
// OrderItem refund/return flags.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	CustomerID  string      `json:"customerId"`

	Status         OrderStatus    `json:"status"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	ShippingStatus ShippingStatus `json:"shippingStatus"`

	Currency       string  `json:"currency"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	ShippingCost   float64 `json:"shippingCost"`
	TaxAmount      float64 `json:"taxAmount"`
	Total          float64 `json:"total"`

	CouponCode *string `json:"couponCode"`

	BillingAddress  JSONB  `json:"billingAddress"`
	ShippingAddress JSONB  `json:"shippingAddress"`
	Notes           string `json:"notes"`

	PaymentTransactionID *string `json:"paymentTransactionId"`
	PaymentDetails       JSONB   `json:"paymentDetails"`

	TrackingNumber *string `json:"trackingNumber"`
	TrackingURL    *string `json:"trackingUrl"`

	ConfirmedAt *time.Time `json:"confirmedAt"`
	ShippedAt   *time.Time `json:"shippedAt"`
	DeliveredAt *time.Time `json:"deliveredAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	Items []OrderItem `json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is an immutable snapshot of a cart line item at order-creation
// time. Name and SKU are captured so later catalog edits do not corrupt
// history.
type OrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"orderId"`
	ProductID   string  `json:"productId"`
	VariantID   *string `json:"variantId"`
	ProductName string  `json:"productName"`
	SKU         string  `json:"sku"`

	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxAmount      float64 `json:"taxAmount"`
	LineTotal      float64 `json:"lineTotal"`

	Options     JSONB `json:"options"`
	TracksStock bool  `json:"tracksStock"`

	Refunded bool `json:"refunded"`
	Returned bool `json:"returned"`
}

// OrderStatusHistory is the append-only log of order-status transitions.
// A nil ActorID means the transition was system-initiated.
type OrderStatusHistory struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"orderId"`
	Status         OrderStatus `json:"status"`
	PreviousStatus *OrderStatus `json:"previousStatus"`
	ActorID        *string     `json:"actorId"`
	Note           string      `json:"note"`
	Metadata       JSONB       `json:"metadata"` // ip, user agent
	CreatedAt      time.Time   `json:"createdAt"`
}

// --- Pure predicates (cross-cutting checks live in the orchestrator) ---

// CanBeCancelled: the order has not started fulfilment and no money has
// been captured.
func (o *Order) CanBeCancelled() bool {
	orderOK := o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
	paymentOK := o.PaymentStatus == PaymentStatusPending || o.PaymentStatus == PaymentStatusFailed
	return orderOK && paymentOK
}

// CanBeShipped: confirmed or in fulfilment, and fully paid.
func (o *Order) CanBeShipped() bool {
	orderOK := o.Status == OrderStatusConfirmed || o.Status == OrderStatusProcessing
	return orderOK && o.PaymentStatus == PaymentStatusPaid
}

// CanBeRefunded: paid and not yet delivered or terminal.
func (o *Order) CanBeRefunded() bool {
	orderOK := o.Status == OrderStatusConfirmed || o.Status == OrderStatusProcessing || o.Status == OrderStatusShipped
	return orderOK && o.PaymentStatus == PaymentStatusPaid
}

type OrderRepository interface {
	// Create persists the order together with its items.
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)

	// UpdateStatus writes the order status and stamps the matching
	// milestone timestamp (confirmed_at, shipped_at, delivered_at,
	// cancelled_at) when one applies.
	UpdateStatus(ctx context.Context, id string, status OrderStatus, at time.Time) error
	UpdatePayment(ctx context.Context, id string, status PaymentStatus, transactionID *string, details JSONB) error
	UpdateShipping(ctx context.Context, id string, status ShippingStatus, trackingNumber, trackingURL *string) error

	AddHistory(ctx context.Context, entry *OrderStatusHistory) error
	GetHistory(ctx context.Context, orderID string) ([]OrderStatusHistory, error)
}
