package domain

import (
	"context"
	"errors"
	"time"
)

// CartOwner identifies who a cart belongs to: a logged-in customer or an
// anonymous session. Exactly one of the two must be set.
type CartOwner struct {
	CustomerID *string
	SessionID  *string
}

func CustomerOwner(customerID string) CartOwner {
	return CartOwner{CustomerID: &customerID}
}

func SessionOwner(sessionID string) CartOwner {
	return CartOwner{SessionID: &sessionID}
}

func (o CartOwner) Validate() error {
	if (o.CustomerID == nil) == (o.SessionID == nil) {
		return errors.New("cart owner requires exactly one of customer id or session id")
	}
	return nil
}

// Key returns a stable identity string for the owner, used for cart
// uniqueness.
func (o CartOwner) Key() string {
	if o.CustomerID != nil {
		return "customer:" + *o.CustomerID
	}
	if o.SessionID != nil {
		return "session:" + *o.SessionID
	}
	return ""
}

type CartLineItem struct {
	ID        string  `json:"id"`
	CartID    string  `json:"cartId"`
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"` // captured at add-time
	LineTotal float64 `json:"lineTotal"`
	Options   JSONB   `json:"options"`
	Metadata  JSONB   `json:"metadata"`
}

// Matches reports whether the line item covers the same product+variant
// pair. Adding an existing pair increments quantity instead of duplicating.
func (li *CartLineItem) Matches(productID string, variantID *string) bool {
	if li.ProductID != productID {
		return false
	}
	if li.VariantID == nil && variantID == nil {
		return true
	}
	return li.VariantID != nil && variantID != nil && *li.VariantID == *variantID
}

type Cart struct {
	ID         string     `json:"id"`
	CustomerID *string    `json:"customerId"`
	SessionID  *string    `json:"sessionId"`
	Items      []CartLineItem `json:"items"`
	CouponCode *string    `json:"couponCode"`

	// Derived fields. Never set directly; Recompute owns them.
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	ShippingCost   float64 `json:"shippingCost"` // quoted externally, merely carried
	TaxAmount      float64 `json:"taxAmount"`
	Total          float64 `json:"total"`
	ItemsCount     int     `json:"itemsCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Cart) Owner() CartOwner {
	return CartOwner{CustomerID: c.CustomerID, SessionID: c.SessionID}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the line item with the given id, or nil.
func (c *Cart) FindItem(itemID string) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindLine returns the line item for a product+variant pair, or nil.
func (c *Cart) FindLine(productID string, variantID *string) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].Matches(productID, variantID) {
			return &c.Items[i]
		}
	}
	return nil
}

// AddLine merges quantity into an existing product+variant line or appends
// a new one, and returns the affected line. Callers must Recompute after.
func (c *Cart) AddLine(id, productID string, variantID *string, quantity int, unitPrice float64, options JSONB) *CartLineItem {
	if existing := c.FindLine(productID, variantID); existing != nil {
		existing.Quantity += quantity
		existing.LineTotal = Round2(existing.UnitPrice * float64(existing.Quantity))
		return existing
	}
	c.Items = append(c.Items, CartLineItem{
		ID:        id,
		CartID:    c.ID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: Round2(unitPrice * float64(quantity)),
		Options:   options,
	})
	return &c.Items[len(c.Items)-1]
}

// SetLineQuantity updates a line item quantity. Quantity zero is rejected;
// removal is an explicit operation, never a silent side effect of an update.
func (c *Cart) SetLineQuantity(itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item := c.FindItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Quantity = quantity
	item.LineTotal = Round2(item.UnitPrice * float64(quantity))
	return nil
}

// RemoveLine drops a line item. Returns false if the id is not in the cart.
func (c *Cart) RemoveLine(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ClearItems removes every line item, zeroes all derived fields and drops
// the coupon.
func (c *Cart) ClearItems() {
	c.Items = nil
	c.CouponCode = nil
	c.Subtotal = 0
	c.DiscountAmount = 0
	c.ShippingCost = 0
	c.TaxAmount = 0
	c.Total = 0
	c.ItemsCount = 0
}

// MergeFrom folds another cart's line items into this one: quantities sum
// for matching product+variant pairs, other lines move across. Option
// differences on matching lines are ignored in favor of the destination
// cart. The source cart is emptied. Callers must Recompute after.
func (c *Cart) MergeFrom(other *Cart) {
	for i := range other.Items {
		src := other.Items[i]
		if existing := c.FindLine(src.ProductID, src.VariantID); existing != nil {
			existing.Quantity += src.Quantity
			existing.LineTotal = Round2(existing.UnitPrice * float64(existing.Quantity))
			continue
		}
		src.CartID = c.ID
		c.Items = append(c.Items, src)
	}
	other.ClearItems()
}

// Recompute re-derives subtotal, items count and total from the line items
// and the supplied discount. It is the only writer of the derived fields;
// every mutating operation ends here.
// Invariant: total = subtotal - discount + shipping + tax, floored at zero.
func (c *Cart) Recompute(discountAmount float64) {
	var subtotal float64
	count := 0
	for i := range c.Items {
		c.Items[i].LineTotal = Round2(c.Items[i].UnitPrice * float64(c.Items[i].Quantity))
		subtotal += c.Items[i].LineTotal
		count += c.Items[i].Quantity
	}
	c.Subtotal = Round2(subtotal)
	c.ItemsCount = count

	if discountAmount < 0 {
		discountAmount = 0
	}
	if max := c.Subtotal + c.ShippingCost; discountAmount > max {
		discountAmount = max
	}
	c.DiscountAmount = Round2(discountAmount)

	total := c.Subtotal - c.DiscountAmount + c.ShippingCost + c.TaxAmount
	if total < 0 {
		total = 0
	}
	c.Total = Round2(total)
}

type CartRepository interface {
	// GetOrCreate returns the owner's cart, creating it on first access.
	// Implementations must tolerate concurrent first access for the same
	// owner without creating duplicates.
	GetOrCreate(ctx context.Context, owner CartOwner) (*Cart, error)
	GetByOwner(ctx context.Context, owner CartOwner) (*Cart, error)
	// Save persists the cart row, its line items and derived fields.
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, cartID string) error
}
