package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pokedex-api/internal/api/shared"
	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/service"
	"github.com/phrazzld/pokedex-api/internal/service/auth"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService service.UserService
	jwtService  auth.JWTService
	timeFunc    func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService service.UserService, jwtService auth.JWTService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		timeFunc:    time.Now,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error",
			shared.WithSanitizedDetail(SanitizeValidationError(err)))
		return
	}

	user, err := h.userService.RegisterUser(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
		case MapErrorToStatusCode(err) == http.StatusBadRequest:
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data",
				shared.WithSanitizedDetail(ValidationDetail(err)))
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		}
		return
	}

	h.respondWithTokens(w, r, http.StatusCreated, user.ID, user.Role)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error",
			shared.WithSanitizedDetail(SanitizeValidationError(err)))
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid credentials", err,
				shared.WithElevatedLogLevel())
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to authenticate user", err)
		return
	}

	h.respondWithTokens(w, r, http.StatusOK, user.ID, user.Role)
}

// RefreshToken handles POST /api/auth/refresh. The new pair carries the
// user's current role, so a promotion takes effect on the next refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error",
			shared.WithSanitizedDetail(SanitizeValidationError(err)))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid refresh token", err,
				shared.WithElevatedLogLevel())
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to refresh token", err)
		return
	}

	h.respondWithTokens(w, r, http.StatusOK, user.ID, user.Role)
}

func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userID uuid.UUID,
	role domain.Role,
) {
	resp, err := h.issueTokens(r.Context(), userID, role)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}
	shared.RespondWithJSON(w, r, status, resp)
}

func (h *AuthHandler) issueTokens(ctx context.Context, userID uuid.UUID, role domain.Role) (*AuthResponse, error) {
	issuedAt := h.timeFunc()

	access, err := h.jwtService.GenerateToken(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	refresh, err := h.jwtService.GenerateRefreshToken(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		UserID:       userID,
		Role:         role,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    issuedAt.Add(h.jwtService.TokenLifetime()).UTC().Format(time.RFC3339),
	}, nil
}
