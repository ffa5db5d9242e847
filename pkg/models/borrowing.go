package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Borrowing struct {
	bun.BaseModel `bun:"table:borrowings,alias:bw"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UserID     int        `bun:",nullzero" json:"user_id"`
	BookID     int        `bun:",nullzero" json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	FinePaid   float64    `json:"fine_paid"`
	Notes      *string    `json:"notes,omitempty"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}

// IsOverdue reports whether the loan is active and past its due date.
func (bw *Borrowing) IsOverdue(now time.Time) bool {
	if bw.ReturnedAt != nil {
		return false
	}
	return now.After(bw.DueDate)
}

// DaysOverdue returns the number of whole days elapsed since the due date,
// or 0 if the loan is returned or not yet due. Partial days truncate.
func (bw *Borrowing) DaysOverdue(now time.Time) int {
	if bw.ReturnedAt != nil {
		return 0
	}
	days := int(now.Sub(bw.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CalculateFine returns the fine accrued at the given moment. The stored
// fine is frozen at return time and never recomputed afterwards.
func (bw *Borrowing) CalculateFine(now time.Time, ratePerDay float64) float64 {
	return float64(bw.DaysOverdue(now)) * ratePerDay
}
