package reviews

// SubmitReviewPayload is the payload for submitting a review.
type SubmitReviewPayload struct {
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	ReviewText string `json:"review_text" validate:"max=2000"`
}

// ListReviewsQuery is the query payload for listing a book's reviews.
type ListReviewsQuery struct {
	Limit  int `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}
