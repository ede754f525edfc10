package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/utils"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, order_number, customer_id, status, payment_status, shipping_status,
	currency, subtotal, discount_amount, shipping_cost, tax_amount, total,
	coupon_code, billing_address, shipping_address, notes,
	payment_transaction_id, payment_details, tracking_number, tracking_url,
	confirmed_at, shipped_at, delivered_at, cancelled_at,
	created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	q := querier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		order.ID, order.OrderNumber, order.CustomerID,
		order.Status, order.PaymentStatus, order.ShippingStatus,
		order.Currency, mustNumeric(order.Subtotal), mustNumeric(order.DiscountAmount),
		mustNumeric(order.ShippingCost), mustNumeric(order.TaxAmount), mustNumeric(order.Total),
		order.CouponCode, order.BillingAddress, order.ShippingAddress, order.Notes,
		order.PaymentTransactionID, order.PaymentDetails,
		order.TrackingNumber, order.TrackingURL,
		order.ConfirmedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id,
			                         product_name, sku, quantity, unit_price,
			                         discount_amount, tax_amount, line_total,
			                         options, tracks_stock, refunded, returned)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			item.ID, order.ID, item.ProductID, item.VariantID,
			item.ProductName, item.SKU, item.Quantity, mustNumeric(item.UnitPrice),
			mustNumeric(item.DiscountAmount), mustNumeric(item.TaxAmount),
			mustNumeric(item.LineTotal), item.Options,
			item.TracksStock, item.Refunded, item.Returned)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getBy(ctx, "id", id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getBy(ctx, "order_number", orderNumber)
}

func (r *orderRepository) getBy(ctx context.Context, column, value string) (*domain.Order, error) {
	q := querier(ctx, r.db)
	row := q.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE `+column+` = $1`, value)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	order.Items, err = r.loadItems(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	q := querier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT`+orderColumns+` FROM orders
		WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := querier(ctx, r.db)

	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, "payment_status = $"+strconv.Itoa(len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, "order_number ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	args = append(args, limit, (page-1)*limit)
	rows, err := q.Query(ctx, `
		SELECT`+orderColumns+` FROM orders WHERE `+cond+`
		ORDER BY created_at DESC
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	q := querier(ctx, r.db)
	var count int64
	err := q.QueryRow(ctx, `SELECT count(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&count)
	return count, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	q := querier(ctx, r.db)

	set := "status = $2, updated_at = $3"
	switch status {
	case domain.OrderStatusConfirmed:
		set += ", confirmed_at = $3"
	case domain.OrderStatusShipped:
		set += ", shipped_at = $3"
	case domain.OrderStatusDelivered:
		set += ", delivered_at = $3"
	case domain.OrderStatusCancelled:
		set += ", cancelled_at = $3"
	}

	ct, err := q.Exec(ctx, `UPDATE orders SET `+set+` WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, transactionID *string, details domain.JSONB) error {
	q := querier(ctx, r.db)
	ct, err := q.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_transaction_id = COALESCE($3, payment_transaction_id),
		    payment_details = COALESCE($4, payment_details),
		    updated_at = $5
		WHERE id = $1`,
		id, status, transactionID, details, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateShipping(ctx context.Context, id string, status domain.ShippingStatus, trackingNumber, trackingURL *string) error {
	q := querier(ctx, r.db)
	ct, err := q.Exec(ctx, `
		UPDATE orders
		SET shipping_status = $2,
		    tracking_number = COALESCE($3, tracking_number),
		    tracking_url = COALESCE($4, tracking_url),
		    updated_at = $5
		WHERE id = $1`,
		id, status, trackingNumber, trackingURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update shipping status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) AddHistory(ctx context.Context, entry *domain.OrderStatusHistory) error {
	q := querier(ctx, r.db)
	if entry.ID == "" {
		entry.ID = utils.GenerateUUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, previous_status, actor_id, note, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OrderID, entry.Status, entry.PreviousStatus,
		entry.ActorID, entry.Note, entry.Metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add status history: %w", err)
	}
	return nil
}

func (r *orderRepository) GetHistory(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error) {
	q := querier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, order_id, status, previous_status, actor_id, note, metadata, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.OrderStatusHistory
	for rows.Next() {
		var h domain.OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.PreviousStatus,
			&h.ActorID, &h.Note, &h.Metadata, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *orderRepository) loadItems(ctx context.Context, q DBTX, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, variant_id, product_name, sku, quantity,
		       unit_price, discount_amount, tax_amount, line_total,
		       options, tracks_stock, refunded, returned
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item                       domain.OrderItem
			price, disc, tax, lineTot  pgtype.Numeric
		)
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.SKU, &item.Quantity,
			&price, &disc, &tax, &lineTot,
			&item.Options, &item.TracksStock, &item.Refunded, &item.Returned); err != nil {
			return nil, err
		}
		item.OrderID = orderID
		item.UnitPrice = NumericToFloat64(price)
		item.DiscountAmount = NumericToFloat64(disc)
		item.TaxAmount = NumericToFloat64(tax)
		item.LineTotal = NumericToFloat64(lineTot)
		items = append(items, item)
	}
	return items, rows.Err()
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                        domain.Order
		subtotal, discount, shipping, tax, total pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID,
		&o.Status, &o.PaymentStatus, &o.ShippingStatus,
		&o.Currency, &subtotal, &discount, &shipping, &tax, &total,
		&o.CouponCode, &o.BillingAddress, &o.ShippingAddress, &o.Notes,
		&o.PaymentTransactionID, &o.PaymentDetails,
		&o.TrackingNumber, &o.TrackingURL,
		&o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Subtotal = NumericToFloat64(subtotal)
	o.DiscountAmount = NumericToFloat64(discount)
	o.ShippingCost = NumericToFloat64(shipping)
	o.TaxAmount = NumericToFloat64(tax)
	o.Total = NumericToFloat64(total)
	return &o, nil
}
