package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/service/auth"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// UserService provides account operations for the auth endpoints.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// RegisterUser creates an account. Emails on the admin list get
	// domain.RoleAdmin, everyone else domain.RoleTrainer.
	RegisterUser(ctx context.Context, email, password string) (*domain.User, error)

	// Authenticate returns the user whose email and password match, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore   store.UserStore
	hasher      auth.PasswordHasher
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	adminEmails []string,
	logger *slog.Logger,
) *UserServiceImpl {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	return &UserServiceImpl{
		userStore:   userStore,
		hasher:      hasher,
		adminEmails: admins,
		logger:      logger.With("component", "user_service"),
	}
}

// RoleFor reports the role a new account with this email receives.
func (s *UserServiceImpl) RoleFor(email string) domain.Role {
	if _, ok := s.adminEmails[strings.ToLower(strings.TrimSpace(email))]; ok {
		return domain.RoleAdmin
	}
	return domain.RoleTrainer
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// RegisterUser implements UserService.
func (s *UserServiceImpl) RegisterUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password, s.RoleFor(email))
	if err != nil {
		s.logger.Debug("rejected user registration",
			"error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"user_id", user.ID)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email",
				"email", user.Email)
		} else {
			s.logger.Error("failed to save user",
				"error", err,
				"email", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to retrieve user by email",
			"error", err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored password hash could not be compared",
				"error", err,
				"user_id", user.ID)
		}
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
