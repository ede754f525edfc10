package domain

// Order lifecycle is tracked on three independent axes: order status,
// payment status and shipping status. Each axis is a closed enumeration
// with an explicit transition table, so an illegal move is rejected before
// any write happens.

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusReturned   OrderStatus = "returned"
)

// orderTransitions is the allowed edge set per status. A status missing
// from the map (or with an empty set) is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded, OrderStatusReturned},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusRefunded, OrderStatusReturned},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded, OrderStatusReturned},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusReturned:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing:        {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusPaid:              {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
	PaymentStatusFailed:            {PaymentStatusProcessing, PaymentStatusPaid},
	PaymentStatusPartiallyRefunded: {PaymentStatusRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ShippingStatus string

const (
	ShippingStatusNotShipped     ShippingStatus = "not_shipped"
	ShippingStatusPreparing      ShippingStatus = "preparing"
	ShippingStatusShipped        ShippingStatus = "shipped"
	ShippingStatusInTransit      ShippingStatus = "in_transit"
	ShippingStatusOutForDelivery ShippingStatus = "out_for_delivery"
	ShippingStatusDelivered      ShippingStatus = "delivered"
	ShippingStatusFailedDelivery ShippingStatus = "failed_delivery"
	ShippingStatusReturned       ShippingStatus = "returned"
)

// shippingProgress orders the happy path. Forward jumps are allowed
// (not_shipped straight to shipped is the common case), backward moves are
// not. failed_delivery and returned are reachable from any pre-delivered
// state and are terminal, as is delivered.
var shippingProgress = map[ShippingStatus]int{
	ShippingStatusNotShipped:     10,
	ShippingStatusPreparing:      20,
	ShippingStatusShipped:        30,
	ShippingStatusInTransit:      40,
	ShippingStatusOutForDelivery: 50,
	ShippingStatusDelivered:      60,
}

func (s ShippingStatus) Valid() bool {
	if _, ok := shippingProgress[s]; ok {
		return true
	}
	return s == ShippingStatusFailedDelivery || s == ShippingStatusReturned
}

func (s ShippingStatus) CanTransitionTo(next ShippingStatus) bool {
	cur, curOK := shippingProgress[s]
	if !curOK {
		// failed_delivery and returned are terminal
		return false
	}
	if next == ShippingStatusFailedDelivery || next == ShippingStatusReturned {
		return s != ShippingStatusDelivered
	}
	nxt, nextOK := shippingProgress[next]
	if !nextOK {
		return false
	}
	return nxt > cur && s != ShippingStatusDelivered
}

// InShippedFamily reports whether the parcel has physically left the
// warehouse but not yet reached the customer.
func (s ShippingStatus) InShippedFamily() bool {
	return s == ShippingStatusShipped || s == ShippingStatusInTransit || s == ShippingStatusOutForDelivery
}

// List exports for API consumers and validation.
var (
	OrderStatuses = []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusReturned,
	}
	PaymentStatuses = []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded,
	}
	ShippingStatuses = []ShippingStatus{
		ShippingStatusNotShipped, ShippingStatusPreparing, ShippingStatusShipped,
		ShippingStatusInTransit, ShippingStatusOutForDelivery, ShippingStatusDelivered,
		ShippingStatusFailedDelivery, ShippingStatusReturned,
	}
)
