package memory

import (
	"context"
	"time"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type cartRepository struct {
	store *Store
}

func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{store: store}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// The owner key is the uniqueness guard; a concurrent first access
	// for the same owner lands on the existing cart.
	if cart, ok := s.carts[owner.Key()]; ok {
		return cloneCart(cart), nil
	}

	now := time.Now().UTC()
	cart := &domain.Cart{
		ID:         utils.GenerateUUID(),
		CustomerID: owner.CustomerID,
		SessionID:  owner.SessionID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.carts[owner.Key()] = cart
	s.cartOwnerByID[cart.ID] = owner.Key()
	return cloneCart(cart), nil
}

func (r *cartRepository) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[owner.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCart(cart), nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerKey, ok := s.cartOwnerByID[cart.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored := cloneCart(cart)
	stored.UpdatedAt = time.Now().UTC()
	s.carts[ownerKey] = stored
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, cartID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerKey, ok := s.cartOwnerByID[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.carts, ownerKey)
	delete(s.cartOwnerByID, cartID)
	return nil
}
