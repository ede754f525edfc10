package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrItemNotFound is returned when a cart mutation references a line
	// item that does not belong to the cart.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrInsufficientStock is returned by a conditional stock decrement
	// that would drive the available quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition is returned when a status change is not in the
	// allowed edge set for the current state, or an orchestrator
	// precondition (cancellable, shippable) does not hold.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateCouponUsage is returned when a coupon usage is recorded
	// twice for the same order.
	ErrDuplicateCouponUsage = errors.New("coupon usage already recorded for order")

	// ErrInvalidQuantity is returned for non-positive quantities. Quantity
	// zero is deliberately rejected by UpdateItemQuantity; removal is an
	// explicit operation.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Cart validation reasons reported per line item.
const (
	CartIssueEmpty          = "cart_empty"
	CartIssueNotPurchasable = "not_purchasable"
	CartIssueOutOfStock     = "out_of_stock"
)

// CartValidationIssue describes one offending line item so callers can
// render per-item messages.
type CartValidationIssue struct {
	LineItemID string  `json:"lineItemId,omitempty"`
	ProductID  string  `json:"productId,omitempty"`
	VariantID  *string `json:"variantId,omitempty"`
	Reason     string  `json:"reason"`
	Requested  int     `json:"requested,omitempty"`
	Available  int     `json:"available,omitempty"`
}

// CartInvalidError aborts order creation before any write occurs.
type CartInvalidError struct {
	Issues []CartValidationIssue
}

func (e *CartInvalidError) Error() string {
	if len(e.Issues) == 0 {
		return "cart invalid"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.ProductID == "" {
			parts = append(parts, issue.Reason)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.ProductID, issue.Reason))
	}
	return "cart invalid: " + strings.Join(parts, "; ")
}

// NewEmptyCartError reports the empty-cart case as a CartInvalidError so
// callers only have one error shape to handle for checkout validation.
func NewEmptyCartError() *CartInvalidError {
	return &CartInvalidError{Issues: []CartValidationIssue{{Reason: CartIssueEmpty}}}
}

// TransitionError wraps ErrInvalidTransition with the offending states.
func TransitionError(axis, from, to string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, axis, from, to)
}
