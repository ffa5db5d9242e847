package catalog

// CreateBookPayload is the payload for creating a book.
type CreateBookPayload struct {
	Title           string  `json:"title" validate:"required,max=300"`
	Author          string  `json:"author" validate:"required,max=200"`
	ISBN            string  `json:"isbn" validate:"required,max=20"`
	Barcode         string  `json:"barcode" validate:"required,max=64"`
	Genre           string  `json:"genre" validate:"required,max=100"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	RackNo          string  `json:"rack_no" validate:"required,max=20"`
	ShelfNo         *string `json:"shelf_no" validate:"omitempty,max=20"`
	Edition         *string `json:"edition" validate:"omitempty,max=50"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,gte=0"`
	Publisher       *string `json:"publisher" validate:"omitempty,max=200"`
	Pages           *int    `json:"pages" validate:"omitempty,gte=1"`
	Description     *string `json:"description"`
	TotalCopies     int     `json:"total_copies" default:"1" validate:"gte=1"`
}

// UpdateBookPayload is the payload for updating a book. Only provided
// fields are written.
type UpdateBookPayload struct {
	Title           *string `json:"title" validate:"omitempty,max=300"`
	Author          *string `json:"author" validate:"omitempty,max=200"`
	Genre           *string `json:"genre" validate:"omitempty,max=100"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	RackNo          *string `json:"rack_no" validate:"omitempty,max=20"`
	ShelfNo         *string `json:"shelf_no" validate:"omitempty,max=20"`
	Edition         *string `json:"edition" validate:"omitempty,max=50"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,gte=0"`
	Publisher       *string `json:"publisher" validate:"omitempty,max=200"`
	Pages           *int    `json:"pages" validate:"omitempty,gte=1"`
	Description     *string `json:"description"`
	Status          *string `json:"status" validate:"omitempty,bookstatus"`
	TotalCopies     *int    `json:"total_copies" validate:"omitempty,gte=1"`
}

// ListBooksQuery is the query payload for listing books.
type ListBooksQuery struct {
	Limit  int     `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset int     `query:"offset" validate:"gte=0"`
	Search *string `query:"search"`
	Genre  *string `query:"genre"`
	Status *string `query:"status" validate:"omitempty,bookstatus"`
}
