package usecase

import (
	"context"
	"time"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/cache"
)

// CachedCatalog decorates a CatalogGateway with a short-TTL read cache.
// Cart operations hammer the same handful of products; the cached
// availability is advisory only; the definitive stock check is the
// conditional decrement inside the order transaction.
type CachedCatalog struct {
	inner domain.CatalogGateway
	cache cache.CacheService
	ttl   time.Duration
}

func NewCachedCatalog(inner domain.CatalogGateway, c cache.CacheService, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, cache: c, ttl: ttl}
}

func factsKey(productID string, variantID *string) string {
	key := "facts:" + productID
	if variantID != nil {
		key += ":" + *variantID
	}
	return key
}

func (c *CachedCatalog) GetFacts(ctx context.Context, productID string, variantID *string) (*domain.ProductFacts, error) {
	key := factsKey(productID, variantID)
	if val, found := c.cache.Get(key); found {
		if facts, ok := val.(*domain.ProductFacts); ok {
			return facts, nil
		}
	}

	facts, err := c.inner.GetFacts(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, facts, c.ttl)
	return facts, nil
}

func (c *CachedCatalog) IsPurchasable(ctx context.Context, productID string, variantID *string) (bool, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	return facts.Purchasable, nil
}

func (c *CachedCatalog) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Available, nil
}

func (c *CachedCatalog) FinalPrice(ctx context.Context, productID string, variantID *string) (float64, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Price, nil
}

// Invalidate drops the cached facts for a product/variant, e.g. after an
// inventory write the caller wants visible immediately.
func (c *CachedCatalog) Invalidate(productID string, variantID *string) {
	c.cache.Delete(factsKey(productID, variantID))
}
