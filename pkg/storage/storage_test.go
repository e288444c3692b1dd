package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, ticket, err := signer.Sign("exp-1", "replies/exp-1.csv")
	require.NoError(t, err)

	got, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, "replies/exp-1.csv", got.Path)
	assert.True(t, ticket.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSignerRejectsTamperedAndExpired(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	token, _, err := signer.Sign("exp-1", "replies/exp-1.csv")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Minute).Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("a.b.c", false)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	ticket, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "replies/exp-1.csv", ticket.Path)
}

func TestLocalStorageLifecycle(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("replies/a.csv", []byte("id\n1\n"))
	require.NoError(t, err)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "id\n1\n", string(body))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.root, "replies", "a.csv"), old, old))
	_, err = store.Save("replies/b.csv", []byte("fresh"))
	require.NoError(t, err)

	removed, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"replies/a.csv"}, removed)

	require.NoError(t, store.Delete("replies/a.csv"))
	_, err = store.Save("../escape.csv", nil)
	assert.ErrorIs(t, err, ErrInvalidPath)
}
