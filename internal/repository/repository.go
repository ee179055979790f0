package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imperionite/fm-core/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotFound     = errors.New("item not in cart")
	ErrDuplicateItem    = errors.New("service already in cart")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicatePayment = errors.New("order already has a payment")
)

type UserRepository interface {
	// EnsureUser upserts the identity row so carts and orders have a valid
	// owner to reference.
	EnsureUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetCartByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	AddCartItem(ctx context.Context, cartID int64, item *domain.CartItem) error
	RemoveCartItem(ctx context.Context, cartID int64, serviceID string) error
	ClearCartItems(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	// CreateOrderFromCart persists the order with its items and clears the
	// cart in one transaction: either all writes commit or none do.
	CreateOrderFromCart(ctx context.Context, order *domain.Order, cartID int64) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	// CreatePayment inserts the payment row and advances the order to paid
	// in one transaction.
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
}
