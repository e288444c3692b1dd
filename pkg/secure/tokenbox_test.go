package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBoxRoundTrip(t *testing.T) {
	box, err := NewTokenBox("k1")
	require.NoError(t, err)

	sealed, err := box.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ya29")

	again, err := box.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestTokenBoxRejectsForeignKey(t *testing.T) {
	a, _ := NewTokenBox("k1")
	b, _ := NewTokenBox("k2")
	sealed, err := a.Seal("refresh")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = b.Open("not-base64!")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestTokenBoxEmpty(t *testing.T) {
	box, _ := NewTokenBox("k")
	sealed, err := box.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	_, err = NewTokenBox("")
	assert.Error(t, err)
}
