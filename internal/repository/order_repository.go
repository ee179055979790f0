package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/imperionite/fm-core/internal/domain"
)

func (r *Repository) CreateOrderFromCart(ctx context.Context, order *domain.Order, cartID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders (id, user_id, status, total_price, ordered_at)
	               VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, orderQuery,
		order.ID, order.UserID, order.Status, order.TotalPrice, order.OrderedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, service_id, service_name, price)
	              VALUES ($1, $2, $3, $4)`
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			order.ID, item.ServiceID, item.ServiceName, item.Price); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart in checkout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, status, total_price, ordered_at FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalPrice,
		&order.OrderedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.attachOrderItems(ctx, []*domain.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT id, user_id, status, total_price, ordered_at
	          FROM orders WHERE user_id = $1 ORDER BY ordered_at DESC`
	return r.listOrders(ctx, query, userID)
}

func (r *Repository) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT id, user_id, status, total_price, ordered_at
	          FROM orders ORDER BY ordered_at DESC`
	return r.listOrders(ctx, query)
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	var referenceID sql.NullString
	if payment.ReferenceID != "" {
		referenceID = sql.NullString{String: payment.ReferenceID, Valid: true}
	}

	paymentQuery := `INSERT INTO payments (id, order_id, method, amount, reference_id, paid_at)
	                 VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.ExecContext(ctx, paymentQuery,
		payment.ID, payment.OrderID, payment.Method, payment.Amount, referenceID, payment.PaidAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`,
		domain.OrderStatusPaid, payment.OrderID); err != nil {
		return fmt.Errorf("advance order to paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	query := `SELECT id, order_id, method, amount, reference_id, paid_at
	          FROM payments WHERE order_id = $1`

	var payment domain.Payment
	var referenceID sql.NullString
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Method,
		&payment.Amount,
		&referenceID,
		&payment.PaidAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by order id: %w", err)
	}
	payment.ReferenceID = referenceID.String
	return &payment, nil
}

func (r *Repository) listOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalPrice,
			&order.OrderedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := r.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) attachOrderItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
		byID[o.ID] = o
		o.Items = make([]domain.OrderItem, 0)
	}

	query := `SELECT order_id, service_id, service_name, price
	          FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ServiceID, &item.ServiceName, &item.Price); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}
