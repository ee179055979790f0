package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TTLs are part of the consistency contract: a stale entry read between a
// commit and its invalidation lives at most this long.
const (
	CartTTL      = 5 * time.Minute
	OrderTTL     = 5 * time.Minute
	OrderListTTL = 5 * time.Minute
	ServiceTTL   = time.Hour
)

func CartKey(userID int64) string {
	return fmt.Sprintf("cart:user:%d", userID)
}

func OrderKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID)
}

func OrderListKey(userID int64) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

func ServiceKey(serviceID string) string {
	return fmt.Sprintf("service:%s", serviceID)
}
