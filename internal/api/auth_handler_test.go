package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/pokedex-api/internal/api"
	"github.com/phrazzld/pokedex-api/internal/api/shared"
	"github.com/phrazzld/pokedex-api/internal/config"
	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/mocks"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/platform/memory"
	"github.com/phrazzld/pokedex-api/internal/service"
	"github.com/phrazzld/pokedex-api/internal/service/auth"
	"github.com/phrazzld/pokedex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthRouter(t *testing.T, users store.UserStore) (http.Handler, auth.JWTService) {
	t.Helper()
	log, _ := logger.NewTestLogger()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "auth-handler-test-secret-of-32-chars",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	userService := service.NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), []string{"oak@example.com"}, log)
	h := api.NewAuthHandler(userService, jwtService)

	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/refresh", h.RefreshToken)
	return r, jwtService
}

func TestAuthHandler_RegisterLoginRefresh(t *testing.T) {
	h, jwtService := newAuthRouter(t, memory.NewUserStore())
	ctx := context.Background()

	rec := do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"ash@example.com","password":"pikachu-i-choose-you"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[api.AuthResponse](t, rec)
	assert.NotEqual(t, uuid.Nil, registered.UserID)
	assert.Equal(t, domain.RoleTrainer, registered.Role)
	assert.NotEmpty(t, registered.RefreshToken)

	expiresAt, err := time.Parse(time.RFC3339, registered.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := jwtService.ValidateToken(ctx, registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, claims.UserID)
	assert.Equal(t, domain.RoleTrainer, claims.Role)

	rec = do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"ASH@example.com","password":"another-long-password"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", decodeBody[shared.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"ash@example.com","password":"pikachu-i-choose-you"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	loggedIn := decodeBody[api.AuthResponse](t, rec)
	assert.Equal(t, registered.UserID, loggedIn.UserID)

	rec = do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"ash@example.com","password":"team-rocket-blasting"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody[shared.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+loggedIn.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decodeBody[api.AuthResponse](t, rec)
	assert.Equal(t, registered.UserID, refreshed.UserID)
	_, err = jwtService.ValidateToken(ctx, refreshed.AccessToken)
	assert.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+loggedIn.AccessToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", decodeBody[shared.ErrorResponse](t, rec).Message)
}

func TestAuthHandler_AdminEmailsGetAdminRole(t *testing.T) {
	h, _ := newAuthRouter(t, memory.NewUserStore())

	rec := do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"Oak@Example.com","password":"professor-of-pokemon"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.RoleAdmin, decodeBody[api.AuthResponse](t, rec).Role)
}

func TestAuthHandler_RequestValidation(t *testing.T) {
	h, _ := newAuthRouter(t, memory.NewUserStore())

	tests := []struct {
		name        string
		path        string
		body        string
		wantMessage string
		wantDetail  string
	}{
		{"register bad json", "/api/auth/register", `{`, "Invalid request format", ""},
		{"register bad email", "/api/auth/register", `{"email":"nope","password":"pikachu-i-choose-you"}`, "Validation error", "Invalid email: invalid email format"},
		{"register short password", "/api/auth/register", `{"email":"ash@example.com","password":"short"}`, "Validation error", "Invalid password: too short"},
		{"login missing password", "/api/auth/login", `{"email":"ash@example.com"}`, "Validation error", "Invalid password: required field"},
		{"refresh missing token", "/api/auth/refresh", `{}`, "Validation error", "Invalid refreshtoken: required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, "", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[shared.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantDetail, resp.Error)
		})
	}
}

func TestAuthHandler_RefreshForDeletedUser(t *testing.T) {
	users := new(mocks.UserStore)
	users.On("GetByID", mock.Anything, mock.Anything).Return(nil, store.ErrUserNotFound)
	h, jwtService := newAuthRouter(t, users)

	refresh, err := jwtService.GenerateRefreshToken(context.Background(), uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", decodeBody[shared.ErrorResponse](t, rec).Message)
}

func TestAuthHandler_StoreFault(t *testing.T) {
	users := new(mocks.UserStore)
	users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	users.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	h, _ := newAuthRouter(t, users)

	rec := do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"ash@example.com","password":"pikachu-i-choose-you"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"ash@example.com","password":"pikachu-i-choose-you"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create user", decodeBody[shared.ErrorResponse](t, rec).Message)
}
