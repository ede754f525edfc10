package memory

import (
	"context"
	"fmt"

	"shopcore-backend/internal/domain"
)

// CatalogProduct is the registration record for the in-memory catalog.
type CatalogProduct struct {
	ProductID   string
	VariantID   *string
	Name        string
	SKU         string
	Brand       string
	CategoryIDs []string
	Price       float64
	Purchasable bool
	TracksStock bool
}

// Catalog is an in-memory CatalogGateway. Availability is read live from
// the store's stock map so catalog facts and the inventory ledger never
// disagree in tests.
type Catalog struct {
	store    *Store
	products map[string]CatalogProduct
}

func NewCatalog(store *Store) *Catalog {
	return &Catalog{store: store, products: make(map[string]CatalogProduct)}
}

// Add registers a product and seeds its stock.
func (c *Catalog) Add(p CatalogProduct, initialStock int) {
	key := stockKey(p.ProductID, p.VariantID)
	c.products[key] = p
	if p.TracksStock {
		c.store.mu.Lock()
		c.store.stock[key] = initialStock
		c.store.mu.Unlock()
	}
}

func (c *Catalog) GetFacts(ctx context.Context, productID string, variantID *string) (*domain.ProductFacts, error) {
	p, ok := c.products[stockKey(productID, variantID)]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	available := 0
	if p.TracksStock {
		c.store.mu.Lock()
		available = c.store.stock[stockKey(productID, variantID)]
		c.store.mu.Unlock()
	}

	return &domain.ProductFacts{
		ProductID:   p.ProductID,
		VariantID:   p.VariantID,
		Name:        p.Name,
		SKU:         p.SKU,
		Brand:       p.Brand,
		CategoryIDs: append([]string(nil), p.CategoryIDs...),
		Price:       p.Price,
		Purchasable: p.Purchasable,
		TracksStock: p.TracksStock,
		Available:   available,
	}, nil
}

func (c *Catalog) IsPurchasable(ctx context.Context, productID string, variantID *string) (bool, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	return facts.Purchasable, nil
}

func (c *Catalog) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Available, nil
}

func (c *Catalog) FinalPrice(ctx context.Context, productID string, variantID *string) (float64, error) {
	facts, err := c.GetFacts(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return facts.Price, nil
}
