// Package auth covers account registration, login, and cookie-backed
// sessions.
package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/storage/models"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

var (
	// ErrInvalidCredentials is returned on login with a wrong email or
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")
)

// Service implements account and session management on top of the user
// repository.
type Service struct {
	users    repository.UserRepository
	sessions SessionStore
	logger   *zap.Logger
}

// NewService creates an auth service.
func NewService(users repository.UserRepository, sessions SessionStore, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger.Named("auth"),
	}
}

// Register creates an account and an initial session. The email is
// normalized to lower case before the uniqueness check.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, s.sessions.Create(user.ID), nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	return user, s.sessions.Create(user.ID), nil
}

// Logout invalidates a session token.
func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// Resolve maps a session token to its user id.
func (s *Service) Resolve(token string) (string, bool) {
	return s.sessions.Resolve(token)
}

// CurrentUser loads the account behind a resolved user id.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
