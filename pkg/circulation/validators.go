package circulation

// BorrowPayload is the payload for checking out a book.
type BorrowPayload struct {
	BookID int `json:"book_id" validate:"required,gte=1"`
}

// ListBorrowingsQuery is the query payload for listing borrowings.
type ListBorrowingsQuery struct {
	Limit   int  `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset  int  `query:"offset" validate:"gte=0"`
	UserID  *int `query:"user_id" validate:"omitempty,gte=1"`
	BookID  *int `query:"book_id" validate:"omitempty,gte=1"`
	Active  bool `query:"active"`
	Overdue bool `query:"overdue"`
}
