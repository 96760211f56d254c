package lbs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/internal/config"
)

func TestInMemoryGetSetClear(t *testing.T) {
	store := NewInMemory()
	a, err := access.New()
	require.NoError(t, err)

	_, err = store.Get(a)
	assert.True(t, errors.Is(err, ErrMissing))

	require.NoError(t, store.Set(a, []byte("hello"), true))
	got, err := store.Get(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, store.Clear(a))
	_, err = store.Get(a)
	assert.True(t, errors.Is(err, ErrMissing))
}

func TestDiskStoreRoundTrip(t *testing.T) {
	c := &config.C{Storage: "disk"}
	// Simulate what config.Load does for a relative disk-store-dir.
	dir := t.TempDir()
	c.DiskStoreDir = dir
	store, err := New(c)
	require.NoError(t, err)

	a, err := access.New()
	require.NoError(t, err)
	require.NoError(t, store.Set(a, []byte("manifest bytes"), true))
	got, err := store.Get(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("manifest bytes"), got)
}

