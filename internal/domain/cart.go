package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem snapshots the catalog name and price at add-time; it is never
// refreshed from the catalog afterwards.
type CartItem struct {
	ID          int64           `json:"id"`
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
	AddedAt     time.Time       `json:"added_at"`
}
