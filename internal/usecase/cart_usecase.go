package usecase

import (
	"context"
	"errors"
	"fmt"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/logger"
	"shopcore-backend/pkg/utils"
)

// CartUsecase owns cart mutations. Every mutating operation funnels through
// recompute so the derived-field invariant is enforced in one place.
type CartUsecase struct {
	cartRepo domain.CartRepository
	catalog  domain.CatalogGateway
	quoter   domain.ShippingQuoter
	engine   *CouponEngine
	maxQty   int
}

func NewCartUsecase(cartRepo domain.CartRepository, catalog domain.CatalogGateway, quoter domain.ShippingQuoter, engine *CouponEngine, maxQty int) *CartUsecase {
	return &CartUsecase{
		cartRepo: cartRepo,
		catalog:  catalog,
		quoter:   quoter,
		engine:   engine,
		maxQty:   maxQty,
	}
}

// GetOrCreateCart returns the owner's cart, lazily creating it on first
// access. Concurrent first access for the same owner yields one cart.
func (u *CartUsecase) GetOrCreateCart(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return u.cartRepo.GetOrCreate(ctx, owner)
}

// AddItem appends a line item or merges quantity into an existing
// product+variant line, captures the unit price at add-time and recomputes
// totals. Availability here is an advisory pre-check; the definitive stock
// enforcement happens at order creation.
func (u *CartUsecase) AddItem(ctx context.Context, owner domain.CartOwner, productID string, variantID *string, quantity int, options domain.JSONB) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	facts, err := u.catalog.GetFacts(ctx, productID, variantID)
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}
	if !facts.Purchasable {
		return nil, fmt.Errorf("product %s is not purchasable: %w", productID, domain.ErrNotFound)
	}

	existingQty := 0
	if line := cart.FindLine(productID, variantID); line != nil {
		existingQty = line.Quantity
	}
	newQty := existingQty + quantity
	if newQty > u.maxQty {
		return nil, fmt.Errorf("quantity %d exceeds the per-item limit of %d", newQty, u.maxQty)
	}
	if facts.TracksStock && newQty > facts.Available {
		return nil, fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientStock, newQty, facts.Available)
	}

	cart.AddLine(utils.GenerateUUID(), productID, variantID, quantity, facts.Price, options)
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	logger.Debug().Str("cart_id", cart.ID).Str("product_id", productID).Int("quantity", quantity).Msg("Cart item added")
	return cart, nil
}

// UpdateItemQuantity sets a line item quantity. Quantity zero is rejected;
// use RemoveItem for deletion.
func (u *CartUsecase) UpdateItemQuantity(ctx context.Context, owner domain.CartOwner, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := cart.SetLineQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) (*domain.Cart, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveLine(itemID) {
		return nil, domain.ErrItemNotFound
	}
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (u *CartUsecase) Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.ClearItems()
	cart.Recompute(0)
	if err := u.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyCouponResult reports the outcome of a coupon application. A coupon
// that is not applicable is a normal result, not an error; the cart is left
// unchanged in that case.
type ApplyCouponResult struct {
	Applied        bool    `json:"applied"`
	Code           string  `json:"code"`
	Reason         string  `json:"reason,omitempty"`
	DiscountAmount float64 `json:"discountAmount"`
	NewTotal       float64 `json:"newTotal"`
}

func (u *CartUsecase) ApplyCoupon(ctx context.Context, owner domain.CartOwner, code, customerGroup string) (*ApplyCouponResult, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	facts, err := u.factsForCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	decision, err := u.engine.Evaluate(ctx, code, cart, facts, customerGroup)
	if err != nil {
		return nil, err
	}
	if !decision.Applicable {
		return &ApplyCouponResult{Applied: false, Code: code, Reason: decision.Reason}, nil
	}

	cart.CouponCode = &decision.Coupon.Code
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	logger.Info().Str("cart_id", cart.ID).Str("coupon", decision.Coupon.Code).Float64("discount", cart.DiscountAmount).Msg("Coupon applied")
	return &ApplyCouponResult{
		Applied:        true,
		Code:           decision.Coupon.Code,
		DiscountAmount: cart.DiscountAmount,
		NewTotal:       cart.Total,
	}, nil
}

func (u *CartUsecase) RemoveCoupon(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.CouponCode = nil
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyShippingQuote fetches shipping cost and tax from the external quoter
// and stores them on the cart. The cart only carries these values.
func (u *CartUsecase) ApplyShippingQuote(ctx context.Context, owner domain.CartOwner, address domain.JSONB) (*domain.Cart, error) {
	cart, err := u.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	shipping, tax, err := u.quoter.Quote(ctx, address, cart.Items)
	if err != nil {
		return nil, fmt.Errorf("shipping quote failed: %w", err)
	}
	cart.ShippingCost = shipping
	cart.TaxAmount = tax
	if err := u.recomputeAndSave(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// MergeCarts folds an anonymous session cart into a customer's cart on
// login: quantities sum for matching product+variant pairs, other lines
// move across, and the session cart is discarded.
func (u *CartUsecase) MergeCarts(ctx context.Context, sessionID, customerID string) (*domain.Cart, error) {
	target, err := u.cartRepo.GetOrCreate(ctx, domain.CustomerOwner(customerID))
	if err != nil {
		return nil, err
	}
	source, err := u.cartRepo.GetByOwner(ctx, domain.SessionOwner(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return target, nil
		}
		return nil, err
	}

	target.MergeFrom(source)
	if err := u.recomputeAndSave(ctx, target); err != nil {
		return nil, err
	}
	if err := u.cartRepo.Delete(ctx, source.ID); err != nil {
		return nil, err
	}
	logger.Info().Str("session_cart", source.ID).Str("customer_cart", target.ID).Msg("Carts merged")
	return target, nil
}

// recomputeAndSave re-derives the cart totals (including the coupon
// discount when one is applied) and persists the cart.
func (u *CartUsecase) recomputeAndSave(ctx context.Context, cart *domain.Cart) error {
	// First pass derives subtotal and items count so the discount
	// calculation sees current numbers.
	cart.Recompute(0)

	if cart.CouponCode != nil {
		coupon, err := u.engine.couponRepo.GetByCode(ctx, *cart.CouponCode)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			// Coupon vanished since application; drop it.
			cart.CouponCode = nil
		} else {
			discount := u.engine.CalculateDiscount(coupon, cart.Subtotal, cart.ShippingCost)
			cart.Recompute(discount.Amount)
		}
	}
	return u.cartRepo.Save(ctx, cart)
}

// factsForCart resolves catalog facts for every line item, used for coupon
// product eligibility and checkout validation.
func (u *CartUsecase) factsForCart(ctx context.Context, cart *domain.Cart) ([]*domain.ProductFacts, error) {
	facts := make([]*domain.ProductFacts, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		f, err := u.catalog.GetFacts(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("product lookup failed for %s: %w", item.ProductID, err)
		}
		facts = append(facts, f)
	}
	return facts, nil
}
