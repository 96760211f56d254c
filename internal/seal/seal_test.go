package seal

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("a manifest envelope worth protecting")
	sealed, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)
	got, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenRejectsTampering(t *testing.T) {
	key := randomKey(t)
	sealed, err := Seal(key, []byte("hello"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = Open(key, sealed)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	sealed, err := Seal(randomKey(t), []byte("hello"))
	require.NoError(t, err)
	_, err = Open(randomKey(t), sealed)
	assert.Error(t, err)
}
