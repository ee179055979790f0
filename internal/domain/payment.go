package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodMaya   PaymentMethod = "maya"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPaypal PaymentMethod = "paypal"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodMaya, PaymentMethodCard, PaymentMethodPaypal:
		return true
	}
	return false
}

// Payment is created exactly once per order, on the confirmed → paid
// transition. Amount is copied from the order's total at pay time, not
// re-derived from line items.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	Method      PaymentMethod   `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
}
