package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketFormSubmit holds the answers a buyer gave to a ticket form.
type TicketFormSubmit struct {
	bun.BaseModel `bun:"table:ticket_form_submits"`

	ID        int64     `bun:"id,pk,autoincrement"`
	EventID   int64     `bun:"event_id,notnull"`
	UserID    string    `bun:"user_id"`
	Entries   []string  `bun:"entries"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
