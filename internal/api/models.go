package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/pokedex-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   domain.Role `json:"role"`

	// AccessToken authorizes Pokedex writes. Sent as "token".
	AccessToken string `json:"token"`

	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the RFC 3339 time at which AccessToken expires.
	ExpiresAt string `json:"expires_at"`
}

// DeleteResponse confirms a deletion and carries the removed document.
type DeleteResponse struct {
	Message string          `json:"message"`
	Deleted *domain.Pokemon `json:"deleted"`
}
