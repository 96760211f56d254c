package fs

import (
	"time"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/manifest"
)

// Stat is the type-tagged metadata snapshot returned by Mutator.Stat.
type Stat struct {
	Type          string
	Access        access.Access
	Author        ids.DeviceID
	BaseVersion   uint32
	NeedSync      bool
	IsPlaceholder bool
	Created       time.Time
	Updated       time.Time
	ChildCount    int
}

// Stat resolves path and reports a type-tagged snapshot of its manifest.
//
// The path "/" is always reported as type "root" regardless of
// BaseVersion: the original implementation this core is modelled on
// branches on path.is_root() rather than on manifest kind, so a
// base_version > 0 root (one the sync engine has already accepted) is
// still "root", never demoted to a generic "folder".
func (m *Mutator) Stat(path string) (Stat, error) {
	a, mm, err := m.resolver.Resolve(path, nil)
	if err != nil {
		return Stat{}, err
	}
	st := Stat{
		Type:          typeOf(path, mm),
		Access:        a,
		Author:        mm.GetAuthor(),
		BaseVersion:   mm.GetBaseVersion(),
		NeedSync:      mm.GetNeedSync(),
		IsPlaceholder: mm.GetIsPlaceholder(),
		Created:       mm.GetCreated(),
		Updated:       mm.GetUpdated(),
	}
	if children, ok := childrenOf(mm); ok {
		st.ChildCount = len(children)
	}
	return st, nil
}

func typeOf(path string, mm manifest.Local) string {
	if path == "/" {
		return "root"
	}
	switch mm.(type) {
	case manifest.File:
		return "file"
	case manifest.Workspace:
		return "workspace"
	case manifest.Folder:
		return "folder"
	case manifest.User:
		return "root"
	default:
		return "unknown"
	}
}
