package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySessionStoreCreateResolveDelete(t *testing.T) {
	store := NewMemorySessionStore()

	token := store.Create("user-1")
	assert.NotEmpty(t, token)

	userID, ok := store.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)

	store.Delete(token)
	_, ok = store.Resolve(token)
	assert.False(t, ok)

	// Deleting an unknown token is a no-op.
	store.Delete("never-issued")
}

func TestMemorySessionStoreUnknownToken(t *testing.T) {
	store := NewMemorySessionStore()

	_, ok := store.Resolve("nope")
	assert.False(t, ok)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()

	now := time.Now()
	store.now = func() time.Time { return now }

	token := store.Create("user-1")

	// Just inside the TTL.
	store.now = func() time.Time { return now.Add(SessionTTL - time.Minute) }
	_, ok := store.Resolve(token)
	assert.True(t, ok)

	// Past the TTL the token is lazily evicted.
	store.now = func() time.Time { return now.Add(SessionTTL + time.Minute) }
	_, ok = store.Resolve(token)
	assert.False(t, ok)

	// And stays gone even if the clock rewinds.
	store.now = func() time.Time { return now }
	_, ok = store.Resolve(token)
	assert.False(t, ok)
}
