package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the public profile of an account. The followed events live in the
// event_ids_following integer array, which is only queried with raw SQL.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk"`
	FullName  *string   `bun:"fullname"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// UserEmail exposes the sign-in email of an account.
type UserEmail struct {
	bun.BaseModel `bun:"table:user_emails"`

	ID    string `bun:"id,pk"`
	Email string `bun:"email"`
}
