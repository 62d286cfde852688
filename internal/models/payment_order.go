package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PaymentPending   = "PAYMENT_PENDING"
	PaymentSucceeded = "PAYMENT_SUCCEEDED"
	PaymentFailed    = "PAYMENT_FAILED"
)

// PaymentOrder is an order registered with the card payment gateway.
type PaymentOrder struct {
	bun.BaseModel `bun:"table:redsys_orders"`

	ID          int64     `bun:"id,pk,autoincrement"`
	EventID     *int64    `bun:"event_id"`
	OrderID     *string   `bun:"order_id"`
	OrderStatus *string   `bun:"order_status"`
	Amount      *int64    `bun:"amount"`
	Currency    *string   `bun:"currency"`
	UserID      *string   `bun:"user_id"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}
