package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:rs"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UserID      int        `bun:",nullzero" json:"user_id"`
	BookID      int        `bun:",nullzero" json:"book_id"`
	ReservedAt  time.Time  `json:"reserved_at"`
	IsFulfilled bool       `json:"is_fulfilled"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}

// IsActive reports whether the reservation is still waiting to be fulfilled.
func (rs *Reservation) IsActive() bool {
	return !rs.IsFulfilled && rs.CanceledAt == nil
}
