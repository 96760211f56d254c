// Package fs implements the Mutator (spec.md §4.3): the synchronous
// operations that create, remove, move and copy entries in the manifest
// graph, plus the read-only stat/access/beacon helpers built on the
// resolver and beacon packages.
package fs

import (
	"fmt"
	"strings"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/beacon"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/events"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/internal/debug"
	"github.com/opaquecloud/lffs/manifest"
	"github.com/opaquecloud/lffs/resolver"
)

// Mutator is the single entry point for tree-modifying operations. Every
// method is synchronous with respect to the cache (spec.md §5): there is no
// suspension point inside a single operation.
type Mutator struct {
	cache    *cache.Cache
	resolver *resolver.Resolver
	beacon   *beacon.Map
	bus      *events.Bus
	device   ids.DeviceID
}

// New builds a Mutator. device authors every manifest this Mutator creates.
func New(c *cache.Cache, r *resolver.Resolver, b *beacon.Map, bus *events.Bus, device ids.DeviceID) *Mutator {
	debug.Assert(c != nil, "fs.New: cache must not be nil")
	debug.Assert(r != nil, "fs.New: resolver must not be nil")
	debug.Assert(bus != nil, "fs.New: bus must not be nil")
	return &Mutator{cache: c, resolver: r, beacon: b, bus: bus, device: device}
}

// childrenOf returns m's children map and whether m is folderish at all.
// Mirrors resolver.childrenOf; kept as a separate copy since the resolver's
// is unexported and the Mutator needs identical semantics when walking
// manifests it has already resolved.
func childrenOf(m manifest.Local) (map[ids.EntryName]access.Access, bool) {
	switch v := m.(type) {
	case manifest.Folder:
		return v.Children, true
	case manifest.Workspace:
		return v.Children, true
	case manifest.User:
		return v.Children, true
	default:
		return nil, false
	}
}

// evolveChildren applies updates to m's children map while preserving m's
// concrete variant (Folder, Workspace or User).
func evolveChildren(m manifest.Local, updates map[ids.EntryName]*access.Access, markUpdated bool) (manifest.Local, error) {
	switch v := m.(type) {
	case manifest.Folder:
		return v.EvolveChildren(updates, markUpdated), nil
	case manifest.Workspace:
		return v.EvolveChildren(updates, markUpdated), nil
	case manifest.User:
		return v.EvolveChildren(updates, markUpdated), nil
	default:
		return nil, fmt.Errorf("fs: %T is not folderish", m)
	}
}

func joinSegments(segments []ids.EntryName) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

func isStrictPrefixPath(ancestor, descendant string) bool {
	ancestor = strings.TrimSuffix(ancestor, "/")
	return strings.HasPrefix(descendant, ancestor+"/")
}

// resolveParent splits path into its parent directory and final name
// segment, then resolves the parent. Used by every create/remove
// operation.
func (m *Mutator) resolveParent(path string) (parentAccess access.Access, parentManifest manifest.Local, name ids.EntryName, err error) {
	segments, err := resolver.Segments(path)
	if err != nil {
		return access.Access{}, nil, "", err
	}
	if len(segments) == 0 {
		return access.Access{}, nil, "", &PermissionDenied{Path: path, Msg: "root has no parent"}
	}
	parentPath := joinSegments(segments[:len(segments)-1])
	parentAccess, parentManifest, err = m.resolver.Resolve(parentPath, nil)
	if err != nil {
		return access.Access{}, nil, "", err
	}
	return parentAccess, parentManifest, segments[len(segments)-1], nil
}

func (m *Mutator) isRoot(a access.Access) bool {
	return a.ID() == m.cache.Root().ID()
}

// createChild is the shared implementation of Touch, Mkdir and
// WorkspaceCreate: resolve path's parent, enforce the root-placement rule,
// check for a name collision, then allocate and write through a fresh
// manifest built by build.
func (m *Mutator) createChild(path string, requireRoot bool, build func() manifest.Local) (access.Access, error) {
	parentAccess, parentManifest, name, err := m.resolveParent(path)
	if err != nil {
		return access.Access{}, err
	}
	atRoot := m.isRoot(parentAccess)
	if requireRoot && !atRoot {
		return access.Access{}, &PermissionDenied{Path: path}
	}
	if !requireRoot && atRoot {
		return access.Access{}, &PermissionDenied{Path: path}
	}
	children, ok := childrenOf(parentManifest)
	if !ok {
		return access.Access{}, &resolver.NotADirectory{Path: path}
	}
	if _, exists := children[name]; exists {
		return access.Access{}, &FileExists{Path: path}
	}

	newAccess, err := access.New()
	if err != nil {
		return access.Access{}, fmt.Errorf("fs: %w", err)
	}
	newManifest := build()
	if err := m.cache.Set(newAccess, newManifest, true); err != nil {
		return access.Access{}, err
	}

	updatedParent, err := evolveChildren(parentManifest, map[ids.EntryName]*access.Access{name: &newAccess}, true)
	if err != nil {
		return access.Access{}, err
	}
	if err := m.cache.Set(parentAccess, updatedParent, true); err != nil {
		return access.Access{}, err
	}
	m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: parentAccess.ID()})
	if _, ok := newManifest.(manifest.Workspace); ok {
		m.bus.Publish(events.Event{Topic: events.WorkspaceLoaded, ID: newAccess.ID(), Path: path})
	}
	return newAccess, nil
}

// Touch creates an empty file at path.
func (m *Mutator) Touch(path string) (access.Access, error) {
	return m.createChild(path, false, func() manifest.Local { return manifest.NewFile(m.device) })
}

// Mkdir creates an empty folder at path.
func (m *Mutator) Mkdir(path string) (access.Access, error) {
	return m.createChild(path, false, func() manifest.Local { return manifest.NewFolder(m.device) })
}

// WorkspaceCreate creates a workspace as a direct child of root.
func (m *Mutator) WorkspaceCreate(path string) (access.Access, error) {
	creator := m.device.UserID()
	return m.createChild(path, true, func() manifest.Local { return manifest.NewWorkspace(m.device, creator) })
}

// WorkspaceRename rewrites root's children mapping only: the workspace's
// Access is preserved (spec.md §4.3's one exception to identity
// preservation).
func (m *Mutator) WorkspaceRename(src, dst string) error {
	srcAccess, srcManifest, err := m.resolver.Resolve(src, nil)
	if err != nil {
		return err
	}
	if _, ok := srcManifest.(manifest.Workspace); !ok {
		return &PermissionDenied{Path: src, Msg: "must rename a workspace"}
	}
	srcSegments, err := resolver.Segments(src)
	if err != nil {
		return err
	}
	dstSegments, err := resolver.Segments(dst)
	if err != nil {
		return err
	}
	if len(srcSegments) != 1 || len(dstSegments) != 1 {
		return &PermissionDenied{Path: src, Dst: dst, Msg: "workspace rename operates on root's children only"}
	}
	oldName, newName := srcSegments[0], dstSegments[0]

	rootManifest, err := m.cache.Get(m.cache.Root())
	if err != nil {
		return err
	}
	rootUser, ok := rootManifest.(manifest.User)
	if !ok {
		return fmt.Errorf("fs: root manifest is not a User manifest")
	}
	if newName != oldName {
		if _, exists := rootUser.Children[newName]; exists {
			return &FileExists{Path: dst}
		}
	}
	updated := rootUser.EvolveChildren(map[ids.EntryName]*access.Access{newName: &srcAccess, oldName: nil}, true)
	if err := m.cache.Set(m.cache.Root(), updated, true); err != nil {
		return err
	}
	m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: m.cache.Root().ID()})
	return nil
}

// removeChild implements Unlink/Rmdir/Delete. wantFile, when non-nil,
// restricts the target's kind: true requires a file, false requires an
// empty folder. When nil, the target may be a file or an empty folder.
func (m *Mutator) removeChild(path string, wantFile *bool) error {
	parentAccess, parentManifest, name, err := m.resolveParent(path)
	if err != nil {
		return err
	}
	if m.isRoot(parentAccess) {
		return &PermissionDenied{Path: path}
	}
	children, ok := childrenOf(parentManifest)
	if !ok {
		return &resolver.NotADirectory{Path: path}
	}
	targetAccess, exists := children[name]
	if !exists {
		return &resolver.NoSuchEntry{Path: path}
	}
	targetManifest, err := m.cache.Get(targetAccess)
	if err != nil {
		return err
	}
	if wantFile == nil {
		if targetChildren, ok := childrenOf(targetManifest); ok && len(targetChildren) > 0 {
			return &DirectoryNotEmpty{Path: path}
		}
	}
	if wantFile != nil {
		switch {
		case *wantFile && !targetManifest.IsFile():
			return &IsADirectory{Path: path}
		case !*wantFile && !targetManifest.IsFolderish():
			return &resolver.NotADirectory{Path: path}
		case !*wantFile:
			targetChildren, _ := childrenOf(targetManifest)
			if len(targetChildren) > 0 {
				return &DirectoryNotEmpty{Path: path}
			}
		}
	}

	updatedParent, err := evolveChildren(parentManifest, map[ids.EntryName]*access.Access{name: nil}, true)
	if err != nil {
		return err
	}
	if err := m.cache.Set(parentAccess, updatedParent, true); err != nil {
		return err
	}
	m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: parentAccess.ID()})
	return nil
}

// Unlink removes a file.
func (m *Mutator) Unlink(path string) error {
	wantFile := true
	return m.removeChild(path, &wantFile)
}

// Rmdir removes an empty folder.
func (m *Mutator) Rmdir(path string) error {
	wantFile := false
	return m.removeChild(path, &wantFile)
}

// Delete removes a file or an empty folder.
func (m *Mutator) Delete(path string) error {
	return m.removeChild(path, nil)
}

// GetAccess resolves path and returns only its Access: a read-only lookup.
func (m *Mutator) GetAccess(path string) (access.Access, error) {
	a, _, err := m.resolver.Resolve(path, nil)
	return a, err
}

// GetBeacon returns the sync-notification topic id for a mutation at path.
func (m *Mutator) GetBeacon(path string) (beacon.ID, error) {
	return m.beacon.For(path)
}

// GetLocalBeacons returns every locally-known beacon topic: the root beacon
// and every locally-present workspace beacon.
func (m *Mutator) GetLocalBeacons() (map[beacon.ID]access.Access, error) {
	return m.beacon.Local()
}
