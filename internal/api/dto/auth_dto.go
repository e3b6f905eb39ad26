package dto

import "time"

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	PhoneOrEmail string `json:"phoneOrEmail"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// SignInRequest payload for password sign-in. PhoneOrEmail also accepts a username.
type SignInRequest struct {
	PhoneOrEmail string `json:"phoneOrEmail"`
	Password     string `json:"password"`
}

// AuthResponse standard response for sign-in.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// AuthenticatedResponse answers whether the presented token is valid.
type AuthenticatedResponse struct {
	Authenticated bool `json:"authenticated"`
}

// PasswordChangeRequest payload for changing the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
