package manifest

import (
	"time"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
)

// Remote is the server-observed form of a manifest: no NeedSync or
// IsPlaceholder, since by definition a remote manifest has already been
// accepted by the server at Version.
type Remote interface {
	GetAuthor() ids.DeviceID
	GetVersion() uint32
	GetCreated() time.Time
	GetUpdated() time.Time
	IsFolderish() bool
	IsFile() bool
}

type remoteCommon struct {
	Author  ids.DeviceID
	Version uint32
	Created time.Time
	Updated time.Time
}

func (c remoteCommon) GetAuthor() ids.DeviceID { return c.Author }
func (c remoteCommon) GetVersion() uint32      { return c.Version }
func (c remoteCommon) GetCreated() time.Time   { return c.Created }
func (c remoteCommon) GetUpdated() time.Time   { return c.Updated }

type RemoteFile struct {
	remoteCommon
	Size   uint64
	Blocks []BlockAccess
}

func (RemoteFile) IsFolderish() bool { return false }
func (RemoteFile) IsFile() bool      { return true }

type RemoteFolder struct {
	remoteCommon
	Children map[ids.EntryName]access.Access
}

func (RemoteFolder) IsFolderish() bool { return true }
func (RemoteFolder) IsFile() bool      { return false }

type RemoteWorkspace struct {
	RemoteFolder
	Creator      ids.UserID
	Participants []ids.UserID
}

type RemoteUser struct {
	RemoteFolder
	LastProcessedMessage uint32
}

func cloneChildren(in map[ids.EntryName]access.Access) map[ids.EntryName]access.Access {
	out := make(map[ids.EntryName]access.Access, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ToRemote converts f's local form into the shape uploaded to, or last
// observed from, the server, following LocalFileManifest.to_remote.
func (f File) ToRemote() RemoteFile {
	return RemoteFile{
		remoteCommon: remoteCommon{Author: f.Author, Version: f.BaseVersion, Created: f.Created, Updated: f.Updated},
		Size:         f.Size,
		Blocks:       f.Blocks,
	}
}

// ToLocal converts a server-observed file manifest into its local form:
// freshly synced, so NeedSync and IsPlaceholder are both false.
func (r RemoteFile) ToLocal() File {
	return File{
		Common: Common{
			Author:        r.Author,
			BaseVersion:   r.Version,
			NeedSync:      false,
			IsPlaceholder: false,
			Created:       r.Created,
			Updated:       r.Updated,
		},
		Size:   r.Size,
		Blocks: r.Blocks,
	}
}

func (f Folder) ToRemote() RemoteFolder {
	return RemoteFolder{
		remoteCommon: remoteCommon{Author: f.Author, Version: f.BaseVersion, Created: f.Created, Updated: f.Updated},
		Children:     cloneChildren(f.Children),
	}
}

func (r RemoteFolder) ToLocal() Folder {
	return Folder{
		Common: Common{
			Author:        r.Author,
			BaseVersion:   r.Version,
			NeedSync:      false,
			IsPlaceholder: false,
			Created:       r.Created,
			Updated:       r.Updated,
		},
		Children: cloneChildren(r.Children),
	}
}

func (w Workspace) ToRemote() RemoteWorkspace {
	return RemoteWorkspace{
		RemoteFolder: w.Folder.ToRemote(),
		Creator:      w.Creator,
		Participants: append([]ids.UserID(nil), w.Participants...),
	}
}

func (r RemoteWorkspace) ToLocal() Workspace {
	return Workspace{
		Folder:       r.RemoteFolder.ToLocal(),
		Creator:      r.Creator,
		Participants: append([]ids.UserID(nil), r.Participants...),
	}
}

func (u User) ToRemote() RemoteUser {
	return RemoteUser{
		RemoteFolder:          u.Folder.ToRemote(),
		LastProcessedMessage:  u.LastProcessedMessage,
	}
}

func (r RemoteUser) ToLocal() User {
	return User{
		Folder:                r.RemoteFolder.ToLocal(),
		LastProcessedMessage:  r.LastProcessedMessage,
	}
}
