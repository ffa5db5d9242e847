package auth

// RegisterPayload represents the request body for registering a member.
type RegisterPayload struct {
	Username   string  `json:"username" validate:"required,min=3,max=50"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   string  `json:"password" validate:"required,min=8"`
	RollNumber *string `json:"roll_number" validate:"omitempty,max=50"`
	Phone      *string `json:"phone" validate:"omitempty,max=15"`
}

// LoginPayload represents the request body for logging in.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
