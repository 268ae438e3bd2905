package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	_, ok := store.GetToken(ctx, "org-1")
	assert.False(t, ok)

	store.SetToken(ctx, "org-1", "bearer-abc")
	token, ok := store.GetToken(ctx, "org-1")
	require.True(t, ok)
	assert.Equal(t, "bearer-abc", token)

	// Tokens are keyed per organization.
	_, ok = store.GetToken(ctx, "org-2")
	assert.False(t, ok)

	store.InvalidateToken(ctx, "org-1")
	_, ok = store.GetToken(ctx, "org-1")
	assert.False(t, ok)
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	store.tokens[tokenKey("org-1")] = memoryToken{
		value:     "stale",
		expiresAt: time.Now().Add(-time.Minute),
	}

	_, ok := store.GetToken(ctx, "org-1")
	assert.False(t, ok)
}
