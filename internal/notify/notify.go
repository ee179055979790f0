package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Task carries everything a worker needs to send a payment confirmation.
// It is handed off at pay time and processed off the request path: delivery
// failure never reaches the payer.
type Task struct {
	Email   string          `json:"email"`
	OrderID uuid.UUID       `json:"order_id"`
	Items   []TaskItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

type TaskItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Queue is the hand-off capability injected into the order service. The
// default implementation is an in-process worker pool; a kafka-backed one
// exists for multi-instance deployments.
type Queue interface {
	Enqueue(task Task) error
}

// Mailer delivers a composed message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

const subject = "Payment Confirmation - Your Subscription is Paid"

// ComposeMessage renders the plain-text confirmation body.
func ComposeMessage(task Task) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nHere's a summary of your order:\n\n", task.Email)
	for _, item := range task.Items {
		fmt.Fprintf(&b, "- %s: ₱%s\n", item.Name, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: ₱%s\n\n", task.Total.StringFixed(2))
	b.WriteString("We're processing your subscription and will notify you once it is available.\n\n")
	b.WriteString("Thank you!\n\nThe FinMark Team")
	return subject, b.String()
}

// deliver composes and sends one notification, bounded by timeout. Failures
// are logged and swallowed.
func deliver(ctx context.Context, mailer Mailer, logger *zap.Logger, task Task) {
	subj, body := ComposeMessage(task)
	if err := mailer.Send(ctx, task.Email, subj, body); err != nil {
		logger.Error("payment notification delivery failed",
			zap.String("order_id", task.OrderID.String()),
			zap.String("email", task.Email),
			zap.Error(err))
		return
	}
	logger.Info("payment notification sent",
		zap.String("order_id", task.OrderID.String()),
		zap.String("email", task.Email))
}
