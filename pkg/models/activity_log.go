package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Activity actions.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionSearch        = "search"
	ActionViewBook      = "view_book"
	ActionBorrow        = "borrow"
	ActionReturn        = "return"
	ActionReserve       = "reserve"
	ActionAddBook       = "add_book"
	ActionEditBook      = "edit_book"
	ActionDeleteBook    = "delete_book"
	ActionScanSuccess   = "scan_success"
	ActionScanMisplaced = "scan_misplaced"
)

// ActivityLog is append-only observability data. Business rules never read
// it.
type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_logs,alias:al"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    *int      `json:"user_id,omitempty"`
	BookID    *int      `json:"book_id,omitempty"`
	Action    string    `bun:",nullzero" json:"action"`
	Details   *string   `json:"details,omitempty"`
	IPAddress *string   `json:"ip_address,omitempty"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
