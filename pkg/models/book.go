package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book statuses. LOST and MAINTENANCE are set manually by staff and are
// never overwritten by circulation logic.
const (
	BookStatusAvailable   = "available"
	BookStatusBorrowed    = "borrowed"
	BookStatusReserved    = "reserved"
	BookStatusLost        = "lost"
	BookStatusMaintenance = "maintenance"
)

// BookStatuses lists every valid book status.
var BookStatuses = []string{
	BookStatusAvailable,
	BookStatusBorrowed,
	BookStatusReserved,
	BookStatusLost,
	BookStatusMaintenance,
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID                   int        `bun:",pk,nullzero" json:"id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Title                string     `bun:",nullzero" json:"title"`
	Author               string     `bun:",nullzero" json:"author"`
	ISBN                 string     `bun:",nullzero" json:"isbn"`
	Barcode              string     `bun:",nullzero" json:"barcode"`
	Genre                string     `bun:",nullzero" json:"genre"`
	Category             *string    `json:"category,omitempty"`
	RackNo               string     `bun:",nullzero" json:"rack_no"`
	ShelfNo              *string    `json:"shelf_no,omitempty"`
	Edition              *string    `json:"edition,omitempty"`
	PublicationYear      *int       `json:"publication_year,omitempty"`
	Publisher            *string    `json:"publisher,omitempty"`
	Pages                *int       `json:"pages,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Status               string     `bun:",nullzero" json:"status"`
	TotalCopies          int        `json:"total_copies"`
	AvailableCopies      int        `json:"available_copies"`
	AverageRating        float64    `json:"average_rating"`
	LastLocationVerified *time.Time `json:"last_location_verified,omitempty"`
}

// IsAvailable reports whether the book has copies left to borrow.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// HasStatusOverride reports whether staff have marked the book lost or under
// maintenance. Circulation must not touch the status while an override is
// set.
func (b *Book) HasStatusOverride() bool {
	return b.Status == BookStatusLost || b.Status == BookStatusMaintenance
}
