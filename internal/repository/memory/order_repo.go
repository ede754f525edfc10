package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shopcore-backend/internal/domain"
)

type orderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = cloneOrder(order)
	s.orderIDByNumber[order.OrderNumber] = order.ID
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.orderIDByNumber[orderNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(s.orders[id]), nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.Order
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(o.OrderNumber, strings.ToUpper(filter.Search)) {
			continue
		}
		all = append(all, *cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = at
	switch status {
	case domain.OrderStatusConfirmed:
		order.ConfirmedAt = &at
	case domain.OrderStatusShipped:
		order.ShippedAt = &at
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &at
	case domain.OrderStatusCancelled:
		order.CancelledAt = &at
	}
	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, transactionID *string, details domain.JSONB) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	order.PaymentStatus = status
	if transactionID != nil {
		order.PaymentTransactionID = transactionID
	}
	if details != nil {
		order.PaymentDetails = details.Clone()
	}
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *orderRepository) UpdateShipping(ctx context.Context, id string, status domain.ShippingStatus, trackingNumber, trackingURL *string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	order.ShippingStatus = status
	if trackingNumber != nil {
		order.TrackingNumber = trackingNumber
	}
	if trackingURL != nil {
		order.TrackingURL = trackingURL
	}
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *orderRepository) AddHistory(ctx context.Context, entry *domain.OrderStatusHistory) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[entry.OrderID] = append(s.histories[entry.OrderID], *entry)
	return nil
}

func (r *orderRepository) GetHistory(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.OrderStatusHistory(nil), s.histories[orderID]...), nil
}
