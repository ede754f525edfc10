package memory

import (
	"context"

	"shopcore-backend/internal/domain"
)

// ShippingZone is a static zone entry: flat cost plus a tax rate applied to
// the items subtotal.
type ShippingZone struct {
	Key     string
	Cost    float64
	TaxRate float64
}

// ZoneQuoter is a static-table ShippingQuoter for tests and local runs.
// The real quote source is an external collaborator.
type ZoneQuoter struct {
	zones       map[string]ShippingZone
	defaultZone ShippingZone
}

func NewZoneQuoter(defaultZone ShippingZone, zones ...ShippingZone) *ZoneQuoter {
	q := &ZoneQuoter{zones: make(map[string]ShippingZone), defaultZone: defaultZone}
	for _, z := range zones {
		q.zones[z.Key] = z
	}
	return q
}

func (q *ZoneQuoter) Quote(ctx context.Context, address domain.JSONB, items []domain.CartLineItem) (float64, float64, error) {
	zone := q.defaultZone
	if key, ok := address["deliveryLocation"].(string); ok {
		if z, found := q.zones[key]; found {
			zone = z
		}
	}

	var subtotal float64
	for i := range items {
		subtotal += items[i].LineTotal
	}
	return zone.Cost, domain.Round2(subtotal * zone.TaxRate), nil
}
