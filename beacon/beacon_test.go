package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/lbs"
	"github.com/opaquecloud/lffs/manifest"
	"github.com/opaquecloud/lffs/resolver"
)

func testDevice(t *testing.T) ids.DeviceID {
	t.Helper()
	d, err := ids.NewDeviceID("alice@laptop")
	require.NoError(t, err)
	return d
}

type fixture struct {
	cache     *cache.Cache
	resolver  *resolver.Resolver
	beacon    *Map
	root      access.Access
	workspace access.Access
	doc       access.Access
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	device := testDevice(t)
	root, err := access.New()
	require.NoError(t, err)
	c := cache.New(lbs.NewInMemory(), root, device)

	doc, err := access.New()
	require.NoError(t, err)
	require.NoError(t, c.Set(doc, manifest.NewFile(device), true))

	ws, err := access.New()
	require.NoError(t, err)
	user, err := ids.NewUserID("alice")
	require.NoError(t, err)
	workspace := manifest.NewWorkspace(device, user)
	nameDoc, err := ids.NewEntryName("doc.txt")
	require.NoError(t, err)
	workspace = workspace.EvolveChildren(map[ids.EntryName]*access.Access{nameDoc: &doc}, false)
	require.NoError(t, c.Set(ws, workspace, true))

	rootManifest, err := c.Get(root)
	require.NoError(t, err)
	rootUser := rootManifest.(manifest.User)
	nameWs, err := ids.NewEntryName("shared")
	require.NoError(t, err)
	rootUser = rootUser.EvolveChildren(map[ids.EntryName]*access.Access{nameWs: &ws}, false)
	require.NoError(t, c.Set(root, rootUser, true))

	r := resolver.New(c)
	return fixture{cache: c, resolver: r, beacon: New(c, r), root: root, workspace: ws, doc: doc}
}

func TestForReturnsWorkspaceBeaconInsideWorkspace(t *testing.T) {
	f := newFixture(t)
	id, err := f.beacon.For("/shared/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, f.workspace.ID(), id)
}

func TestForReturnsRootBeaconOutsideAnyWorkspace(t *testing.T) {
	f := newFixture(t)
	id, err := f.beacon.For("/")
	require.NoError(t, err)
	assert.Equal(t, f.root.ID(), id)
}

func TestLocalListsRootAndWorkspaceChildren(t *testing.T) {
	f := newFixture(t)
	known, err := f.beacon.Local()
	require.NoError(t, err)
	require.Len(t, known, 2)
	root, ok := known[f.root.ID()]
	require.True(t, ok)
	assert.Equal(t, f.root, root)
	a, ok := known[f.workspace.ID()]
	require.True(t, ok)
	assert.Equal(t, f.workspace, a)
}

func TestLocalSkipsMissingChildrenButKeepsRoot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cache.Invalidate(f.workspace))
	known, err := f.beacon.Local()
	require.NoError(t, err)
	require.Len(t, known, 1)
	root, ok := known[f.root.ID()]
	require.True(t, ok)
	assert.Equal(t, f.root, root)
}
