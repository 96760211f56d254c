package fs

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/events"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/manifest"
	"github.com/opaquecloud/lffs/resolver"
)

// maxConcurrentPresenceChecks bounds the number of in-flight LBS fetches
// while recursively checking a subtree for local presence, matching the
// teacher's Tree.grow constant (internal/tree/tree_walking.go).
const maxConcurrentPresenceChecks = 8

// Move relocates src to dst and removes src, per spec.md §4.3's move/copy
// algorithm.
func (m *Mutator) Move(src, dst string) error {
	return m.moveOrCopy(src, dst, true)
}

// Copy recursively deep-copies src to dst, leaving src in place.
func (m *Mutator) Copy(src, dst string) error {
	return m.moveOrCopy(src, dst, false)
}

func (m *Mutator) moveOrCopy(src, dst string, deleteSrc bool) error {
	// 1. Degenerate sources.
	if src == "/" {
		return &PermissionDenied{Path: src}
	}
	if dst == "/" {
		return &PermissionDenied{Path: dst}
	}
	_, srcManifest, err := m.resolver.Resolve(src, nil)
	if err != nil {
		return err
	}
	_, srcIsWorkspace := srcManifest.(manifest.Workspace)
	if src == dst {
		if srcIsWorkspace {
			return &PermissionDenied{Path: src, Msg: "must rename"}
		}
		return nil
	}

	// 2. Workspace source guard.
	if srcIsWorkspace {
		return &PermissionDenied{Path: src, Dst: dst, Msg: "must rename"}
	}

	dstParentSegments, err := resolver.Segments(dst)
	if err != nil {
		return err
	}
	if len(dstParentSegments) == 0 {
		return &PermissionDenied{Path: dst}
	}
	dstName := dstParentSegments[len(dstParentSegments)-1]
	dstParentPath := joinSegments(dstParentSegments[:len(dstParentSegments)-1])
	dstParentAccess, dstParentManifest, err := m.resolver.Resolve(dstParentPath, nil)
	if err != nil {
		return err
	}

	// 3. Root-child target guard: only workspaces may live at root.
	if m.isRoot(dstParentAccess) {
		return &PermissionDenied{Path: src, Dst: dst}
	}

	// 4. Acyclicity.
	if isStrictPrefixPath(src, dst) {
		return &InvalidArgument{Src: src, Dst: dst}
	}

	// 5. Existing target conflict.
	dstChildren, dstFolderish := childrenOf(dstParentManifest)
	if !dstFolderish {
		return &resolver.NotADirectory{Path: dstParentPath}
	}
	srcFolderish := srcManifest.IsFolderish()
	if existingAccess, exists := dstChildren[dstName]; exists {
		existingManifest, err := m.cache.Get(existingAccess)
		if err != nil {
			return err
		}
		switch {
		case srcFolderish && existingManifest.IsFile():
			return &resolver.NotADirectory{Path: dst}
		case srcFolderish && existingManifest.IsFolderish():
			existingChildren, _ := childrenOf(existingManifest)
			if len(existingChildren) > 0 {
				return &DirectoryNotEmpty{Path: dst}
			}
		case !srcFolderish && existingManifest.IsFolderish():
			return &IsADirectory{Path: dst}
		}
	}

	// 6a. Presence-check phase.
	missing, err := m.collectMissing(srcManifest)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &resolver.MultiMissLocal{Accesses: missing}
	}

	// 6b. Copy phase.
	newSrcAccess, err := m.copySubtree(srcManifest)
	if err != nil {
		return err
	}

	// 7. Parent rewrite.
	srcParentSegments, err := resolver.Segments(src)
	if err != nil {
		return err
	}
	srcName := srcParentSegments[len(srcParentSegments)-1]
	srcParentPath := joinSegments(srcParentSegments[:len(srcParentSegments)-1])
	srcParentAccess, srcParentManifest, err := m.resolver.Resolve(srcParentPath, nil)
	if err != nil {
		return err
	}

	if srcParentAccess.ID() == dstParentAccess.ID() {
		updates := map[ids.EntryName]*access.Access{dstName: &newSrcAccess}
		if deleteSrc {
			updates[srcName] = nil
		}
		updatedParent, err := evolveChildren(dstParentManifest, updates, true)
		if err != nil {
			return err
		}
		if err := m.cache.Set(dstParentAccess, updatedParent, true); err != nil {
			return err
		}
		m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: dstParentAccess.ID()})
		return nil
	}

	updatedDstParent, err := evolveChildren(dstParentManifest, map[ids.EntryName]*access.Access{dstName: &newSrcAccess}, true)
	if err != nil {
		return err
	}
	if err := m.cache.Set(dstParentAccess, updatedDstParent, true); err != nil {
		return err
	}

	if deleteSrc {
		updatedSrcParent, err := evolveChildren(srcParentManifest, map[ids.EntryName]*access.Access{srcName: nil}, true)
		if err != nil {
			return err
		}
		if err := m.cache.Set(srcParentAccess, updatedSrcParent, true); err != nil {
			return err
		}
	}
	m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: dstParentAccess.ID()})
	if deleteSrc {
		m.bus.Publish(events.Event{Topic: events.EntryUpdated, ID: srcParentAccess.ID()})
	}
	return nil
}

// collectMissing walks the subtree rooted at m recursively, gathering every
// Access absent from the cache rather than aborting on the first one, so
// the caller can surface them all in a single MultiMissLocal (spec.md §4.3
// step 6a). Siblings within a folder are fetched concurrently, bounded by
// maxConcurrentPresenceChecks, following the teacher's Tree.grow pattern
// (internal/tree/tree_walking.go).
func (m *Mutator) collectMissing(mm manifest.Local) ([]access.Access, error) {
	var mu sync.Mutex
	var missing []access.Access
	sem := make(chan struct{}, maxConcurrentPresenceChecks)

	var walk func(manifest.Local) error
	walk = func(node manifest.Local) error {
		children, ok := childrenOf(node)
		if !ok {
			return nil
		}
		g, _ := errgroup.WithContext(context.Background())
		for _, childAccess := range children {
			childAccess := childAccess
			g.Go(func() error {
				sem <- struct{}{}
				childManifest, err := m.cache.Get(childAccess)
				<-sem
				if err != nil {
					var missLocal *cache.MissLocal
					if errors.As(err, &missLocal) {
						mu.Lock()
						missing = append(missing, missLocal.Access)
						mu.Unlock()
						return nil
					}
					return err
				}
				return walk(childManifest)
			})
		}
		return g.Wait()
	}
	if err := walk(mm); err != nil {
		return nil, err
	}
	return missing, nil
}

// copySubtree allocates a fresh Access for mm and every descendant,
// rebuilding folder children maps bottom-up, and writes every new manifest
// through the cache (spec.md §4.3 step 6b). File manifests carry their
// blocks and dirty_blocks verbatim but are reset to local-device
// authorship and placeholder state, since the copy has not been
// synchronised yet.
func (m *Mutator) copySubtree(mm manifest.Local) (access.Access, error) {
	newAccess, err := access.New()
	if err != nil {
		return access.Access{}, err
	}

	switch v := mm.(type) {
	case manifest.File:
		copied := manifest.NewFile(m.device)
		copied.Size = v.Size
		copied.Blocks = append([]manifest.BlockAccess(nil), v.Blocks...)
		copied.DirtyBlocks = append([]manifest.DirtyBlockAccess(nil), v.DirtyBlocks...)
		if err := m.cache.Set(newAccess, copied, true); err != nil {
			return access.Access{}, err
		}
		return newAccess, nil
	case manifest.Folder:
		newChildren := map[ids.EntryName]*access.Access{}
		for name, childAccess := range v.Children {
			childManifest, err := m.cache.Get(childAccess)
			if err != nil {
				return access.Access{}, err
			}
			newChildAccess, err := m.copySubtree(childManifest)
			if err != nil {
				return access.Access{}, err
			}
			newChildren[name] = &newChildAccess
		}
		copied := manifest.NewFolder(m.device).EvolveChildren(newChildren, false)
		if err := m.cache.Set(newAccess, copied, true); err != nil {
			return access.Access{}, err
		}
		return newAccess, nil
	default:
		return access.Access{}, errors.New("fs: copy: unsupported manifest variant for a non-root entry")
	}
}
