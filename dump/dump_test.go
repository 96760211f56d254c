package dump

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/beacon"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/events"
	"github.com/opaquecloud/lffs/fs"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/lbs"
	"github.com/opaquecloud/lffs/resolver"
)

func newFixtureMutator(t *testing.T) *fs.Mutator {
	t.Helper()
	device, err := ids.NewDeviceID("alice@laptop")
	require.NoError(t, err)
	root, err := access.New()
	require.NoError(t, err)
	c := cache.New(lbs.NewInMemory(), root, device)
	r := resolver.New(c)
	b := beacon.New(c, r)
	bus := events.NewBus()
	return fs.New(c, r, b, bus, device)
}

func TestSnapshotRendersIndentedTree(t *testing.T) {
	m := newFixtureMutator(t)
	_, err := m.WorkspaceCreate("/shared")
	require.NoError(t, err)
	_, err = m.Touch("/shared/notes.txt")
	require.NoError(t, err)

	snap, err := Snapshot(m)
	require.NoError(t, err)
	assert.Contains(t, snap, "/ access=")
	assert.Contains(t, snap, "shared access=")
	assert.Contains(t, snap, "notes.txt access=")
}

func TestSnapshotChangesAfterMutation(t *testing.T) {
	m := newFixtureMutator(t)
	before, err := Snapshot(m)
	require.NoError(t, err)

	_, err = m.WorkspaceCreate("/shared")
	require.NoError(t, err)

	after, err := Snapshot(m)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.True(t, strings.Contains(after, "shared"))
}

func TestSaveRootThenLoadRootRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root")

	want, err := access.New()
	require.NoError(t, err)
	require.NoError(t, SaveRoot(path, want))

	got, err := LoadRoot(path)
	require.NoError(t, err)
	assert.Equal(t, want.ID(), got.ID())
	assert.Equal(t, want.Key(), got.Key())
}

func TestLoadRootMissingFile(t *testing.T) {
	_, err := LoadRoot(filepath.Join(t.TempDir(), "root"))
	assert.Error(t, err)
}
