package tokenstore

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdesk/internal/store"
)

func setupStore(t *testing.T, secret string) (*Store, *sql.DB) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := New(db, secret)
	require.NoError(t, err)
	return s, db
}

func TestStore_TokensRoundTrip(t *testing.T) {
	s, _ := setupStore(t, "s3cret")
	ctx := context.Background()

	require.NoError(t, s.SetTokens(ctx, "acc-1", "ref-1"))
	acc, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", acc)

	require.NoError(t, s.SetTokens(ctx, "acc-2", ""))
	ref, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", ref, "empty refresh must keep the previous token")
}

func TestStore_ValuesAreSealed(t *testing.T) {
	s, db := setupStore(t, "s3cret")
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, AccessTokenKey, "plain-token"))

	var raw []byte
	require.NoError(t, db.QueryRow("SELECT value FROM local_storage WHERE key = ?", AccessTokenKey).Scan(&raw))
	assert.False(t, bytes.Contains(raw, []byte("plain-token")), "token must not be stored in clear text")
}

func TestStore_LegacyFallback(t *testing.T) {
	s, _ := setupStore(t, "")
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, LegacyAccessTokenKey, "old-acc"))
	require.NoError(t, s.Set(ctx, LegacyRefreshTokenKey, "old-ref"))

	acc, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old-acc", acc)

	require.NoError(t, s.SetTokens(ctx, "new-acc", "new-ref"))
	acc, _ = s.AccessToken(ctx)
	assert.Equal(t, "new-acc", acc, "current key wins over legacy key")
}

func TestStore_ClearRemovesEverything(t *testing.T) {
	s, _ := setupStore(t, "x")
	ctx := context.Background()
	require.NoError(t, s.SetTokens(ctx, "a", "r"))
	require.NoError(t, s.Set(ctx, "theme", "dark"))

	require.NoError(t, s.Clear(ctx))
	_, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
	acc, _ := s.AccessToken(ctx)
	assert.Empty(t, acc)
}

func TestStore_WrongSecret(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	a, _ := New(db, "one")
	require.NoError(t, a.Set(ctx, "k", "v"))
	b, _ := New(db, "two")
	_, _, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCorrupt)
}
