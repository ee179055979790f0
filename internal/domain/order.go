package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded is terminal and referenced by the transition rules,
	// but no transition in this service produces it.
	OrderStatusRefunded OrderStatus = "refunded"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID         uuid.UUID       `json:"id"`
	UserID     int64           `json:"user_id"`
	Status     OrderStatus     `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []OrderItem     `json:"items"`
	OrderedAt  time.Time       `json:"ordered_at"`
}

// OrderItem is an immutable snapshot of a cart item taken at checkout.
type OrderItem struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
}

// NewOrderFromCart builds a confirmed order from the cart's items. Checkout
// skips "pending" entirely: an order exists only once the buyer committed.
func NewOrderFromCart(userID int64, cart *Cart) *Order {
	items := make([]OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, ci := range cart.Items {
		items = append(items, OrderItem{
			ServiceID:   ci.ServiceID,
			ServiceName: ci.ServiceName,
			Price:       ci.Price,
		})
		total = total.Add(ci.Price)
	}
	return &Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     OrderStatusConfirmed,
		TotalPrice: total,
		Items:      items,
		OrderedAt:  time.Now().UTC(),
	}
}
