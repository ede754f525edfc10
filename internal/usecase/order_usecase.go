package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/logger"
	"shopcore-backend/pkg/utils"
)

// OrderUsecase coordinates the cart-to-order conversion and drives order
// state transitions with their side effects. Multi-step workflows run as a
// single unit of work through the TransactionManager: either every write is
// visible, or none is.
type OrderUsecase struct {
	orderRepo domain.OrderRepository
	cartRepo  domain.CartRepository
	inventory domain.InventoryRepository
	catalog   domain.CatalogGateway
	engine    *CouponEngine
	txManager domain.TransactionManager
	notifier  domain.NotificationDispatcher
	currency  string
}

func NewOrderUsecase(
	orderRepo domain.OrderRepository,
	cartRepo domain.CartRepository,
	inventory domain.InventoryRepository,
	catalog domain.CatalogGateway,
	engine *CouponEngine,
	txManager domain.TransactionManager,
	notifier domain.NotificationDispatcher,
	currency string,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		inventory: inventory,
		catalog:   catalog,
		engine:    engine,
		txManager: txManager,
		notifier:  notifier,
		currency:  currency,
	}
}

// CreateOrderFromCart snapshots the owner's cart into an immutable order,
// reserves inventory and clears the cart, all in one transaction. Any
// validation violation aborts with a CartInvalidError before a single
// write happens.
func (u *OrderUsecase) CreateOrderFromCart(ctx context.Context, owner domain.CartOwner, billingAddr, shippingAddr domain.JSONB, notes string) (*domain.Order, error) {
	cart, err := u.cartRepo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewEmptyCartError()
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.NewEmptyCartError()
	}
	if cart.CustomerID == nil {
		return nil, errors.New("checkout requires an identified customer; merge the session cart first")
	}
	customerID := *cart.CustomerID

	// Validate every line item before any write. Issues are collected so
	// the caller can show per-item messages.
	facts := make([]*domain.ProductFacts, len(cart.Items))
	var issues []domain.CartValidationIssue
	for i := range cart.Items {
		item := &cart.Items[i]
		f, ferr := u.catalog.GetFacts(ctx, item.ProductID, item.VariantID)
		if ferr != nil || !f.Purchasable {
			issues = append(issues, domain.CartValidationIssue{
				LineItemID: item.ID,
				ProductID:  item.ProductID,
				VariantID:  item.VariantID,
				Reason:     domain.CartIssueNotPurchasable,
			})
			continue
		}
		if f.TracksStock && item.Quantity > f.Available {
			issues = append(issues, domain.CartValidationIssue{
				LineItemID: item.ID,
				ProductID:  item.ProductID,
				VariantID:  item.VariantID,
				Reason:     domain.CartIssueOutOfStock,
				Requested:  item.Quantity,
				Available:  f.Available,
			})
			continue
		}
		facts[i] = f
	}
	if len(issues) > 0 {
		return nil, &domain.CartInvalidError{Issues: issues}
	}

	now := time.Now().UTC()
	order := u.snapshotCart(cart, facts, customerID, billingAddr, shippingAddr, notes, now)

	var coupon *domain.Coupon
	if cart.CouponCode != nil && cart.DiscountAmount > 0 {
		coupon, err = u.engine.couponRepo.GetByCode(ctx, *cart.CouponCode)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}

		// Reserve stock per trackable item. The conditional decrement is
		// race safe; losing the last unit to a concurrent order fails the
		// whole transaction with no partial reservation.
		for _, item := range order.Items {
			if !item.TracksStock {
				continue
			}
			if err := u.inventory.Reserve(txCtx, item.ProductID, item.VariantID, item.Quantity, domain.StockReasonOrderPlaced, order.OrderNumber); err != nil {
				return fmt.Errorf("reserving %s: %w", item.ProductID, err)
			}
		}

		if coupon != nil {
			if err := u.engine.RecordUsage(txCtx, coupon, customerID, order.ID, order.DiscountAmount); err != nil {
				return err
			}
		}

		cart.ClearItems()
		cart.Recompute(0)
		if err := u.cartRepo.Save(txCtx, cart); err != nil {
			return err
		}

		return u.appendHistory(txCtx, order.ID, domain.OrderStatusPending, nil, nil, "order created", nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("order_id", order.ID).Str("order_number", order.OrderNumber).Float64("total", order.Total).Msg("Order created")
	u.dispatch(domain.EventOrderCreated, order)
	return order, nil
}

// snapshotCart copies the cart's lines and totals into a new order. The
// cart-level discount and tax are prorated across items by line total.
func (u *OrderUsecase) snapshotCart(cart *domain.Cart, facts []*domain.ProductFacts, customerID string, billingAddr, shippingAddr domain.JSONB, notes string, now time.Time) *domain.Order {
	order := &domain.Order{
		ID:              utils.GenerateUUID(),
		OrderNumber:     utils.GenerateOrderNumber(now),
		CustomerID:      customerID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingStatus:  domain.ShippingStatusNotShipped,
		Currency:        u.currency,
		Subtotal:        cart.Subtotal,
		DiscountAmount:  cart.DiscountAmount,
		ShippingCost:    cart.ShippingCost,
		TaxAmount:       cart.TaxAmount,
		Total:           cart.Total,
		CouponCode:      cart.CouponCode,
		BillingAddress:  billingAddr,
		ShippingAddress: shippingAddr,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order.Items = make([]domain.OrderItem, 0, len(cart.Items))
	for i := range cart.Items {
		line := &cart.Items[i]
		f := facts[i]

		var itemDiscount, itemTax float64
		if cart.Subtotal > 0 {
			share := line.LineTotal / cart.Subtotal
			itemDiscount = domain.Round2(cart.DiscountAmount * share)
			itemTax = domain.Round2(cart.TaxAmount * share)
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:             utils.GenerateUUID(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    f.Name,
			SKU:            f.SKU,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: itemDiscount,
			TaxAmount:      itemTax,
			LineTotal:      line.LineTotal,
			Options:        line.Options.Clone(),
			TracksStock:    f.TracksStock,
		})
	}
	return order
}

// ConfirmOrder moves a pending order to confirmed and stamps confirmed_at.
func (u *OrderUsecase) ConfirmOrder(ctx context.Context, orderID string, actorID *string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, domain.TransitionError("order", string(order.Status), string(domain.OrderStatusConfirmed))
	}

	now := time.Now().UTC()
	prev := order.Status
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, domain.OrderStatusConfirmed, now); err != nil {
			return err
		}
		return u.appendHistory(txCtx, order.ID, domain.OrderStatusConfirmed, &prev, actorID, "order confirmed", nil)
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusConfirmed
	order.ConfirmedAt = &now
	u.dispatch(domain.EventOrderConfirmed, order)
	return order, nil
}

// ShipOrder marks a paid, confirmed/processing order as shipped on both the
// order and shipping axes.
func (u *OrderUsecase) ShipOrder(ctx context.Context, orderID string, trackingNumber, trackingURL *string, actorID *string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeShipped() {
		return nil, domain.TransitionError("order", string(order.Status), string(domain.OrderStatusShipped))
	}
	if !order.ShippingStatus.CanTransitionTo(domain.ShippingStatusShipped) {
		return nil, domain.TransitionError("shipping", string(order.ShippingStatus), string(domain.ShippingStatusShipped))
	}

	now := time.Now().UTC()
	prev := order.Status
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, domain.OrderStatusShipped, now); err != nil {
			return err
		}
		if err := u.orderRepo.UpdateShipping(txCtx, order.ID, domain.ShippingStatusShipped, trackingNumber, trackingURL); err != nil {
			return err
		}
		return u.appendHistory(txCtx, order.ID, domain.OrderStatusShipped, &prev, actorID, "order shipped", nil)
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusShipped
	order.ShippingStatus = domain.ShippingStatusShipped
	order.ShippedAt = &now
	order.TrackingNumber = trackingNumber
	order.TrackingURL = trackingURL
	u.dispatch(domain.EventOrderShipped, order)
	return order, nil
}

// DeliverOrder completes the shipment. Requires the parcel to currently be
// in a shipped-family state.
func (u *OrderUsecase) DeliverOrder(ctx context.Context, orderID string, actorID *string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.ShippingStatus.InShippedFamily() {
		return nil, domain.TransitionError("shipping", string(order.ShippingStatus), string(domain.ShippingStatusDelivered))
	}

	now := time.Now().UTC()
	prev := order.Status
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, domain.OrderStatusDelivered, now); err != nil {
			return err
		}
		if err := u.orderRepo.UpdateShipping(txCtx, order.ID, domain.ShippingStatusDelivered, order.TrackingNumber, order.TrackingURL); err != nil {
			return err
		}
		return u.appendHistory(txCtx, order.ID, domain.OrderStatusDelivered, &prev, actorID, "order delivered", nil)
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusDelivered
	order.ShippingStatus = domain.ShippingStatusDelivered
	order.DeliveredAt = &now
	u.dispatch(domain.EventOrderDelivered, order)
	return order, nil
}

// CancelOrder cancels a cancellable order. Inventory restoration runs
// inside the same transaction; if restoring any item fails, the status is
// not changed and the whole cancellation aborts.
func (u *OrderUsecase) CancelOrder(ctx context.Context, orderID, reason string, actorID *string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, domain.TransitionError("order", string(order.Status), string(domain.OrderStatusCancelled))
	}

	now := time.Now().UTC()
	prev := order.Status
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, item := range order.Items {
			if !item.TracksStock {
				continue
			}
			if err := u.inventory.Restore(txCtx, item.ProductID, item.VariantID, item.Quantity, domain.StockReasonCancellation, order.OrderNumber); err != nil {
				return fmt.Errorf("restoring %s: %w", item.ProductID, err)
			}
		}

		// The coupon can be handed back because the order never got past a
		// cancellable state.
		if order.CouponCode != nil {
			if err := u.engine.ReverseUsage(txCtx, order.ID); err != nil {
				return err
			}
		}

		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, domain.OrderStatusCancelled, now); err != nil {
			return err
		}
		note := "order cancelled"
		if reason != "" {
			note = reason
		}
		return u.appendHistory(txCtx, order.ID, domain.OrderStatusCancelled, &prev, actorID, note, nil)
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	logger.Info().Str("order_id", order.ID).Str("reason", reason).Msg("Order cancelled")
	u.dispatch(domain.EventOrderCancelled, order)
	return order, nil
}

// UpdatePaymentStatus writes the payment status and transaction reference.
// When the payment lands as paid while the order is still pending, the
// order is confirmed automatically: payment success is the trigger for
// leaving pending.
func (u *OrderUsecase) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, transactionID *string, paymentData domain.JSONB) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown payment status %q", status)
	}
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == status {
		return order, nil
	}
	if !order.PaymentStatus.CanTransitionTo(status) {
		return nil, domain.TransitionError("payment", string(order.PaymentStatus), string(status))
	}

	now := time.Now().UTC()
	prevPayment := order.PaymentStatus
	prevStatus := order.Status
	autoConfirm := status == domain.PaymentStatusPaid && order.Status == domain.OrderStatusPending

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdatePayment(txCtx, order.ID, status, transactionID, paymentData); err != nil {
			return err
		}
		// The status history logs order-status transitions only, so a pure
		// payment change writes no row. Auto-confirm is an order transition.
		if autoConfirm {
			if err := u.orderRepo.UpdateStatus(txCtx, order.ID, domain.OrderStatusConfirmed, now); err != nil {
				return err
			}
			return u.appendHistory(txCtx, order.ID, domain.OrderStatusConfirmed, &prevStatus, nil, "auto-confirmed on payment", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("order_id", order.ID).Str("from", string(prevPayment)).Str("to", string(status)).Msg("Payment status updated")

	order.PaymentStatus = status
	order.PaymentTransactionID = transactionID
	if paymentData != nil {
		order.PaymentDetails = paymentData
	}
	if autoConfirm {
		order.Status = domain.OrderStatusConfirmed
		order.ConfirmedAt = &now
		u.dispatch(domain.EventOrderConfirmed, order)
	}
	return order, nil
}

// --- Queries ---

func (u *OrderUsecase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, id)
}

func (u *OrderUsecase) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return u.orderRepo.GetByNumber(ctx, orderNumber)
}

func (u *OrderUsecase) GetMyOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return u.orderRepo.ListByCustomer(ctx, customerID)
}

func (u *OrderUsecase) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, *domain.Pagination, error) {
	orders, total, err := u.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return orders, domain.NewPagination(filter.Page, filter.Limit, total), nil
}

func (u *OrderUsecase) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error) {
	return u.orderRepo.GetHistory(ctx, orderID)
}

// --- Internals ---

func (u *OrderUsecase) appendHistory(ctx context.Context, orderID string, status domain.OrderStatus, prev *domain.OrderStatus, actorID *string, note string, metadata domain.JSONB) error {
	entry := &domain.OrderStatusHistory{
		ID:             utils.GenerateUUID(),
		OrderID:        orderID,
		Status:         status,
		PreviousStatus: prev,
		ActorID:        actorID,
		Note:           note,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
	if err := u.orderRepo.AddHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// dispatch hands the event to the notifier after the transactional core has
// committed. Delivery is fire-and-forget.
func (u *OrderUsecase) dispatch(eventType string, order *domain.Order) {
	if u.notifier == nil {
		return
	}
	u.notifier.Dispatch(domain.NotificationEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Payload: domain.JSONB{
			"total":    order.Total,
			"currency": order.Currency,
			"status":   order.Status,
		},
		OccurredAt: time.Now().UTC(),
	})
}
