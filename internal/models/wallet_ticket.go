package models

import (
	"time"

	"github.com/uptrace/bun"

	"ms-ticket-stats/internal/stats"
)

// WalletTicket is a ticket issued into a user's wallet.
type WalletTicket struct {
	bun.BaseModel `bun:"table:wallet_tickets"`

	ID                  int64      `bun:"id,pk,autoincrement"`
	EventID             *int64     `bun:"event_id"`
	EventTicketsName    *string    `bun:"event_tickets_name"`
	Price               *int64     `bun:"price"`
	OrderID             string     `bun:"order_id,notnull"`
	CreatedAt           time.Time  `bun:"created_at,notnull"`
	UsedAt              *time.Time `bun:"used_at"`
	UserID              *string    `bun:"user_id"`
	TicketFormSubmitsID *int64     `bun:"ticket_form_submits_id"`
}

// ToRecord converts the row into the snapshot the aggregation works on.
func (t WalletTicket) ToRecord() stats.TicketRecord {
	rec := stats.TicketRecord{
		ID:               t.ID,
		TicketTypeName:   t.EventTicketsName,
		PriceMinorUnits:  t.Price,
		OrderID:          t.OrderID,
		CreatedAt:        t.CreatedAt.UTC(),
		FormSubmissionID: t.TicketFormSubmitsID,
	}
	if t.EventID != nil {
		rec.EventID = *t.EventID
	}
	if t.UsedAt != nil {
		used := t.UsedAt.UTC()
		rec.UsedAt = &used
	}
	if t.UserID != nil {
		rec.UserID = *t.UserID
	}
	return rec
}
