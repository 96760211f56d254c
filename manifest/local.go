package manifest

import (
	"time"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
)

// Local is implemented by the local form of every manifest variant: mutable
// intent bearing IsPlaceholder/NeedSync, as opposed to the server-observed
// Remote form. Capability is expressed by the two predicates rather than by
// a type hierarchy, per spec.md §9's "Manifest inheritance" design note.
type Local interface {
	GetAuthor() ids.DeviceID
	GetBaseVersion() uint32
	GetNeedSync() bool
	GetIsPlaceholder() bool
	GetCreated() time.Time
	GetUpdated() time.Time
	IsFolderish() bool
	IsFile() bool
}

// Common holds the fields shared by all four manifest variants.
type Common struct {
	Author        ids.DeviceID
	BaseVersion   uint32
	NeedSync      bool
	IsPlaceholder bool
	Created       time.Time
	Updated       time.Time
}

func newCommon(author ids.DeviceID) Common {
	now := time.Now()
	return Common{
		Author:        author,
		BaseVersion:   0,
		NeedSync:      true,
		IsPlaceholder: true,
		Created:       now,
		Updated:       now,
	}
}

// evolveUpdated bumps Updated and sets NeedSync, matching
// evolve_and_mark_updated in local_manifests.py.
func (c Common) evolveUpdated() Common {
	c.Updated = time.Now()
	c.NeedSync = true
	return c
}

// markSynced records that the sync engine has acknowledged this exact
// manifest content at newVersion. Apart from converting a remote manifest
// with ToLocal, it is the only way NeedSync/IsPlaceholder ever become false
// (spec.md §3 invariant 5 and 6).
func (c Common) markSynced(newVersion uint32) Common {
	c.NeedSync = false
	c.IsPlaceholder = false
	c.BaseVersion = newVersion
	return c
}

func (c Common) GetAuthor() ids.DeviceID      { return c.Author }
func (c Common) GetBaseVersion() uint32       { return c.BaseVersion }
func (c Common) GetNeedSync() bool            { return c.NeedSync }
func (c Common) GetIsPlaceholder() bool       { return c.IsPlaceholder }
func (c Common) GetCreated() time.Time        { return c.Created }
func (c Common) GetUpdated() time.Time        { return c.Updated }

// File is the local form of a file manifest. Block-level I/O is out of
// scope (only the manifest shape is specified); Size/Blocks/DirtyBlocks are
// carried verbatim by the Mutator without interpretation.
type File struct {
	Common
	Size        uint64
	Blocks      []BlockAccess
	DirtyBlocks []DirtyBlockAccess
}

func NewFile(author ids.DeviceID) File {
	return File{Common: newCommon(author)}
}

func (File) IsFolderish() bool { return false }
func (File) IsFile() bool      { return true }

// MarkSynced returns a copy of f acknowledged by the sync engine at
// newVersion.
func (f File) MarkSynced(newVersion uint32) File {
	f.Common = f.Common.markSynced(newVersion)
	return f
}

// Folder is the local form of a folder manifest: a name-to-Access mapping,
// no two entries of which ever share an Access (spec.md §8 property 3).
type Folder struct {
	Common
	Children map[ids.EntryName]access.Access
}

func NewFolder(author ids.DeviceID) Folder {
	return Folder{Common: newCommon(author), Children: map[ids.EntryName]access.Access{}}
}

func (Folder) IsFolderish() bool { return true }
func (Folder) IsFile() bool      { return false }

// EvolveChildren returns a copy of f with updates applied to its children
// map: a nil value deletes that name, matching evolve_children in
// local_manifests.py (which drops keys mapped to None). When markUpdated is
// set, Updated and NeedSync are also bumped (evolve_children_and_mark_updated).
func (f Folder) EvolveChildren(updates map[ids.EntryName]*access.Access, markUpdated bool) Folder {
	merged := make(map[ids.EntryName]access.Access, len(f.Children)+len(updates))
	for name, a := range f.Children {
		merged[name] = a
	}
	for name, a := range updates {
		if a == nil {
			delete(merged, name)
		} else {
			merged[name] = *a
		}
	}
	f.Children = merged
	if markUpdated {
		f.Common = f.Common.evolveUpdated()
	}
	return f
}

func (f Folder) MarkSynced(newVersion uint32) Folder {
	f.Common = f.Common.markSynced(newVersion)
	return f
}

// Workspace is-a Folder (spec.md §3) plus sharing metadata. Unlike every
// other variant, renaming a Workspace preserves its Access (invariant 4).
type Workspace struct {
	Folder
	Creator      ids.UserID
	Participants []ids.UserID
}

func NewWorkspace(author ids.DeviceID, creator ids.UserID) Workspace {
	return Workspace{
		Folder:       NewFolder(author),
		Creator:      creator,
		Participants: []ids.UserID{creator},
	}
}

func (w Workspace) EvolveChildren(updates map[ids.EntryName]*access.Access, markUpdated bool) Workspace {
	w.Folder = w.Folder.EvolveChildren(updates, markUpdated)
	return w
}

func (w Workspace) MarkSynced(newVersion uint32) Workspace {
	w.Folder = w.Folder.MarkSynced(newVersion)
	return w
}

// User is-a Folder (spec.md §3), the device's root manifest: exactly one per
// device, and its Access is the device's root access.
type User struct {
	Folder
	LastProcessedMessage uint32
}

func NewUser(author ids.DeviceID) User {
	return User{Folder: NewFolder(author)}
}

func (u User) EvolveChildren(updates map[ids.EntryName]*access.Access, markUpdated bool) User {
	u.Folder = u.Folder.EvolveChildren(updates, markUpdated)
	return u
}

func (u User) MarkSynced(newVersion uint32) User {
	u.Folder = u.Folder.MarkSynced(newVersion)
	return u
}

var (
	_ Local = File{}
	_ Local = Folder{}
	_ Local = Workspace{}
	_ Local = User{}
)
