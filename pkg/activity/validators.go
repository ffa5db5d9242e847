package activity

type ListActivityQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	UserID *int    `query:"user_id" json:"user_id,omitempty" validate:"omitempty,min=1"`
	Action *string `query:"action" json:"action,omitempty" validate:"omitempty,max=50"`
}
