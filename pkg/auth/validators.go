package auth

import "time"

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginPayload represents the login request body.
type LoginPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the account view returned to its owner.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned from a successful login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}
