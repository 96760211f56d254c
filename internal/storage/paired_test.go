package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairedReadOnlyWithoutLog(t *testing.T) {
	p, err := NewPaired(&InMemory{}, &InMemory{}, "")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Put("k", Value("v")), ErrReadOnly)
}

func TestPairedPutTransientSkipsSlowStore(t *testing.T) {
	fast := &InMemory{}
	slow := &InMemory{}
	p, err := NewPaired(fast, slow, "")
	require.NoError(t, err)

	require.NoError(t, p.PutTransient("k", Value("v")))
	got, err := fast.Get("k")
	require.NoError(t, err)
	assert.Equal(t, Value("v"), got)

	_, err = slow.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

// The background propagation goroutine started by EnsureBackgroundPuts runs
// for the lifetime of the process (the teacher's design has no shutdown
// path for it), so this test does not wrap it in leaktest: it would always
// report the propagator as a leak. It instead only asserts eventual
// delivery to the slow store.
func TestPairedPropagatesDurableWrites(t *testing.T) {
	fast := &InMemory{}
	slow := &InMemory{}
	p, err := NewPaired(fast, slow, t.TempDir()+"/propagation.log")
	require.NoError(t, err)

	// The propagation log's line format is sized for the 36-byte canonical
	// form of a uuid.UUID, which is what every real Key looks like.
	const key = Key("d290f1ee-6c54-4b01-90e6-d701748f0851")
	require.NoError(t, p.Put(key, Value("v")))

	require.Eventually(t, func() bool {
		got, err := slow.Get(key)
		return err == nil && string(got) == "v"
	}, time.Second, 10*time.Millisecond)
}

func TestPairedGetReplenishesFastStore(t *testing.T) {
	fast := &InMemory{}
	slow := &InMemory{}
	require.NoError(t, slow.Put("k", Value("v")))
	p, err := NewPaired(fast, slow, "")
	require.NoError(t, err)

	got, err := p.Get("k")
	require.NoError(t, err)
	assert.Equal(t, Value("v"), got)

	got, err = fast.Get("k")
	require.NoError(t, err)
	assert.Equal(t, Value("v"), got)
}
