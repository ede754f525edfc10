package usecase

import (
	"context"

	"shopcore-backend/internal/domain"
)

// FlatRateQuoter quotes a single shipping cost and a flat tax rate on the
// item subtotal. Real carrier integrations implement domain.ShippingQuoter
// and slot in behind the same interface.
type FlatRateQuoter struct {
	cost    float64
	taxRate float64
}

func NewFlatRateQuoter(cost, taxRate float64) *FlatRateQuoter {
	return &FlatRateQuoter{cost: cost, taxRate: taxRate}
}

func (q *FlatRateQuoter) Quote(ctx context.Context, address domain.JSONB, items []domain.CartLineItem) (float64, float64, error) {
	var subtotal float64
	for i := range items {
		subtotal += items[i].UnitPrice * float64(items[i].Quantity)
	}
	return q.cost, domain.Round2(subtotal * q.taxRate), nil
}
