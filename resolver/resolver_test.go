package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/lbs"
	"github.com/opaquecloud/lffs/manifest"
)

func testDevice(t *testing.T) ids.DeviceID {
	t.Helper()
	d, err := ids.NewDeviceID("alice@laptop")
	require.NoError(t, err)
	return d
}

// fixture wires a root User manifest with one folder child "docs" holding one
// file child "notes.txt", all locally present.
type fixture struct {
	cache    *cache.Cache
	root     access.Access
	docs     access.Access
	notes    access.Access
	resolver *Resolver
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	device := testDevice(t)
	root, err := access.New()
	require.NoError(t, err)
	store := lbs.NewInMemory()
	c := cache.New(store, root, device)

	notes, err := access.New()
	require.NoError(t, err)
	require.NoError(t, c.Set(notes, manifest.NewFile(device), true))

	docs, err := access.New()
	require.NoError(t, err)
	docsFolder := manifest.NewFolder(device)
	nameNotes, err := ids.NewEntryName("notes.txt")
	require.NoError(t, err)
	docsFolder = docsFolder.EvolveChildren(map[ids.EntryName]*access.Access{nameNotes: &notes}, false)
	require.NoError(t, c.Set(docs, docsFolder, true))

	rootUser, err := c.Get(root)
	require.NoError(t, err)
	user := rootUser.(manifest.User)
	nameDocs, err := ids.NewEntryName("docs")
	require.NoError(t, err)
	user = user.EvolveChildren(map[ids.EntryName]*access.Access{nameDocs: &docs}, false)
	require.NoError(t, c.Set(root, user, true))

	return fixture{cache: c, root: root, docs: docs, notes: notes, resolver: New(c)}
}

func TestResolveRoot(t *testing.T) {
	f := newFixture(t)
	var hops []Hop
	a, m, err := f.resolver.Resolve("/", func(h Hop) { hops = append(hops, h) })
	require.NoError(t, err)
	assert.Equal(t, f.root, a)
	assert.True(t, m.IsFolderish())
	assert.Len(t, hops, 1)
}

func TestResolveNestedFile(t *testing.T) {
	f := newFixture(t)
	var hops []Hop
	a, m, err := f.resolver.Resolve("/docs/notes.txt", func(h Hop) { hops = append(hops, h) })
	require.NoError(t, err)
	assert.Equal(t, f.notes, a)
	assert.True(t, m.IsFile())
	require.Len(t, hops, 3)
	assert.Equal(t, f.root, hops[0].Access)
	assert.Equal(t, f.docs, hops[1].Access)
	assert.Equal(t, f.notes, hops[2].Access)
}

func TestResolveNoSuchEntry(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.resolver.Resolve("/docs/missing.txt", nil)
	var notFound *NoSuchEntry
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "/docs/missing.txt", notFound.Path)
}

func TestResolveNotADirectory(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.resolver.Resolve("/docs/notes.txt/extra", nil)
	var notDir *NotADirectory
	require.True(t, errors.As(err, &notDir))
}

func TestResolveInvalidPath(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.resolver.Resolve("relative/path", nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestResolveAbortsOnMidWalkMissLocal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cache.Invalidate(f.docs))

	_, _, err := f.resolver.Resolve("/docs/notes.txt", nil)
	var missErr *cache.MissLocal
	require.True(t, errors.As(err, &missErr))
	assert.Equal(t, f.docs, missErr.Access)
}

func TestSegmentsSplitsPath(t *testing.T) {
	segments, err := Segments("/docs/notes.txt")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "docs", segments[0].String())
	assert.Equal(t, "notes.txt", segments[1].String())
}

func TestSegmentsRootIsEmpty(t *testing.T) {
	segments, err := Segments("/")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegmentsRejectsRelativeComponents(t *testing.T) {
	_, err := Segments("/docs/../etc")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestResolveMultiReturnsSameResultWhenEverythingPresent(t *testing.T) {
	f := newFixture(t)
	a, m, err := f.resolver.ResolveMulti("/docs/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, f.notes, a)
	assert.True(t, m.IsFile())
}

func TestResolveMultiCollectsSingleMissingAccess(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cache.Invalidate(f.notes))

	_, _, err := f.resolver.ResolveMulti("/docs/notes.txt")
	var multi *MultiMissLocal
	require.True(t, errors.As(err, &multi))
	require.Len(t, multi.Accesses, 1)
	assert.Equal(t, f.notes, multi.Accesses[0])
}

func TestResolveMultiStopsAtNotADirectory(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.resolver.ResolveMulti("/docs/notes.txt/extra")
	var notDir *NotADirectory
	require.True(t, errors.As(err, &notDir))
}

func TestResolveMultiStopsAtNoSuchEntry(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.resolver.ResolveMulti("/docs/missing.txt")
	var notFound *NoSuchEntry
	require.True(t, errors.As(err, &notFound))
}
