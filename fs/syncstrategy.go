package fs

import (
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/resolver"
)

// Plan is a recursive per-name map describing which descendants of a
// sync_path the sync engine should upload alongside it. A nil value at a
// leaf means "this entry itself", matching how recursive_plan is built up
// in GetSyncStrategy.
type Plan map[ids.EntryName]Plan

// GetSyncStrategy walks from root down to path and returns the shallowest
// ancestor with IsPlaceholder=true as sync_path, wrapping plan into nested
// per-name maps covering the hops between sync_path and path (spec.md
// §4.5). If no ancestor is a placeholder, (path, plan) is returned
// unchanged.
func (m *Mutator) GetSyncStrategy(path string, plan Plan) (string, Plan, error) {
	segments, err := resolver.Segments(path)
	if err != nil {
		return "", nil, err
	}

	current := m.cache.Root()
	mm, err := m.cache.Get(current)
	if err != nil {
		return "", nil, err
	}
	placeholders := []bool{mm.GetIsPlaceholder()}

	for _, name := range segments {
		children, ok := childrenOf(mm)
		if !ok {
			return "", nil, &resolver.NotADirectory{Path: path}
		}
		next, ok := children[name]
		if !ok {
			return "", nil, &resolver.NoSuchEntry{Path: path}
		}
		mm, err = m.cache.Get(next)
		if err != nil {
			return "", nil, err
		}
		placeholders = append(placeholders, mm.GetIsPlaceholder())
	}

	idx := -1
	for i, isPlaceholder := range placeholders {
		if isPlaceholder {
			idx = i
			break
		}
	}
	if idx == -1 {
		return path, plan, nil
	}

	syncPath := joinSegments(segments[:idx])
	wrapped := plan
	for i := len(segments) - 1; i >= idx; i-- {
		wrapped = Plan{segments[i]: wrapped}
	}
	return syncPath, wrapped, nil
}
