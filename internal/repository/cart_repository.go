package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/imperionite/fm-core/internal/domain"
)

func (r *Repository) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	// The no-op DO UPDATE makes RETURNING yield the row whether it was just
	// inserted or already existed.
	query := `INSERT INTO carts (user_id)
	          VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id, user_id, created_at`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	items, err := r.cartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (r *Repository) GetCartByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT id, user_id, created_at FROM carts WHERE user_id = $1`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by user id: %w", err)
	}

	items, err := r.cartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (r *Repository) AddCartItem(ctx context.Context, cartID int64, item *domain.CartItem) error {
	query := `INSERT INTO cart_items (cart_id, service_id, service_name, price)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, added_at`

	err := r.db.QueryRowContext(ctx, query, cartID, item.ServiceID, item.ServiceName, item.Price).
		Scan(&item.ID, &item.AddedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateItem
		}
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (r *Repository) RemoveCartItem(ctx context.Context, cartID int64, serviceID string) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND service_id = $2`

	res, err := r.db.ExecContext(ctx, query, cartID, serviceID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item rows affected: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repository) ClearCartItems(ctx context.Context, cartID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}

func (r *Repository) cartItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := `SELECT id, service_id, service_name, price, added_at
	          FROM cart_items WHERE cart_id = $1 ORDER BY added_at, id`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ServiceID, &item.ServiceName, &item.Price, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}
