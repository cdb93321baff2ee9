package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

func setupAuthService(t *testing.T) *Service {
	t.Helper()

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repository.NewUserRepository(db.Conn())
	return NewService(users, NewMemorySessionStore(), zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)

	// The registration token resolves immediately.
	resolved, ok := svc.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, user.ID, resolved)

	// Credentials work with a differently-cased email.
	loggedIn, loginToken, err := svc.Login(ctx, "ALICE@example.COM", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEqual(t, token, loginToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Impostor", "ALICE@example.com", "pw2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "correct")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc := setupAuthService(t)

	_, token, err := svc.Register(context.Background(), "Alice", "alice@example.com", "pw")
	require.NoError(t, err)

	svc.Logout(token)
	_, ok := svc.Resolve(token)
	assert.False(t, ok)
}
