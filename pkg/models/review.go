package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rv"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserID       int       `bun:",nullzero" json:"user_id"`
	BookID       int       `bun:",nullzero" json:"book_id"`
	Rating       int       `bun:",nullzero" json:"rating"`
	ReviewText   string    `json:"review_text"`
	HelpfulCount int       `json:"helpful_count"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
