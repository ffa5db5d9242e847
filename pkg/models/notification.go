package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification types.
const (
	NotificationTypeOverdue     = "overdue"
	NotificationTypeAvailable   = "available"
	NotificationTypeReminder    = "reminder"
	NotificationTypeBorrow      = "borrow"
	NotificationTypeReservation = "reservation"
	NotificationTypeInfo        = "info"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	BookID    *int      `json:"book_id,omitempty"`
	Title     string    `bun:",nullzero" json:"title"`
	Message   string    `bun:",nullzero" json:"message"`
	Type      string    `bun:",nullzero" json:"type"`
	IsRead    bool      `json:"is_read"`
	ExpiresAt time.Time `json:"expires_at"`
}
