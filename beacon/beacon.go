// Package beacon implements the Beacon Map (spec.md §4.4): deriving the
// sync-notification topic for a path, and enumerating the workspaces known
// locally.
package beacon

import (
	"errors"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/manifest"
	"github.com/opaquecloud/lffs/resolver"
)

// ID is the topic under which the sync engine publishes and receives change
// notifications for a workspace, or for the user manifest itself. It is
// always equal to some manifest's entry id (spec.md §4.4).
type ID = ids.EntryID

// Map derives beacon ids from a resolved path's hop chain.
type Map struct {
	cache    *cache.Cache
	resolver *resolver.Resolver
}

func New(c *cache.Cache, r *resolver.Resolver) *Map {
	return &Map{cache: c, resolver: r}
}

// For returns the beacon id for a mutation at path: the id of the nearest
// enclosing Workspace, or the root id when path does not descend into any
// workspace (spec.md §4.4). It never fails for a path inside root, since the
// root hop is always resolvable (the synthetic v0 User manifest guarantees
// it) — a failure here means an ancestor is an unresolved MissLocal or the
// path itself is malformed, and is returned rather than papered over.
func (m *Map) For(path string) (ID, error) {
	root := m.cache.Root()
	beacon := root.ID()
	_, _, err := m.resolver.Resolve(path, func(h resolver.Hop) {
		if _, ok := h.Manifest.(manifest.Workspace); ok {
			beacon = h.Access.ID()
		}
	})
	if err != nil {
		return ids.EntryID{}, err
	}
	return beacon, nil
}

// Local enumerates every locally-known beacon topic: the root beacon itself,
// plus every direct child of the root manifest whose manifest is locally
// present and is a WorkspaceManifest, each paired with its beacon id (its own
// entry id, per spec.md §4.4). The root is always included, since it is its
// own beacon topic whenever a mutation happens outside any workspace.
func (m *Map) Local() (map[ID]access.Access, error) {
	root := m.cache.Root()
	known := map[ID]access.Access{root.ID(): root}
	rootManifest, err := m.cache.Get(root)
	if err != nil {
		return nil, err
	}
	user, ok := rootManifest.(manifest.User)
	if !ok {
		return known, nil
	}
	for _, a := range user.Children {
		child, err := m.cache.Get(a)
		if err != nil {
			var missLocal *cache.MissLocal
			if errors.As(err, &missLocal) {
				continue
			}
			return nil, err
		}
		if _, ok := child.(manifest.Workspace); ok {
			known[a.ID()] = a
		}
	}
	return known, nil
}
