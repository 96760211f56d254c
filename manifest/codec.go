package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
)

// ErrUnknownFormat is returned by Decode when a blob's format field is not
// recognised by this codec. spec.md §6 requires readers to reject unknown
// format values rather than guess at their shape.
var ErrUnknownFormat = fmt.Errorf("manifest: unknown format")

// ErrUnknownType is returned by Decode when a blob's type field does not
// match one of the eight known variants.
var ErrUnknownType = fmt.Errorf("manifest: unknown type")

// envelope is the common header every on-disk manifest blob carries, per
// spec.md §6: { format: 1, type: "<variant>", ...fields }.
type envelope struct {
	Format int    `json:"format"`
	Type   string `json:"type"`
}

// Codec encodes and decodes one schema version's worth of manifest blobs.
// Grounded on the teacher's tree.Codec interface and multiCodec registry
// (internal/tree/codec.go), but keyed by a JSON "format" field rather than a
// private binary version byte, because spec.md §6 mandates a tagged,
// forward-compatible JSON envelope: unknown fields must be tolerated on
// load, which a positional binary codec (as in codec_v16.go) cannot offer.
type Codec interface {
	// EncodeLocal renders one local manifest variant as a format-tagged blob.
	EncodeLocal(m Local) ([]byte, error)
	// DecodeLocal parses a format-tagged blob into its local manifest variant.
	DecodeLocal(blob []byte) (Local, error)
	// EncodeRemote and DecodeRemote do the same for the remote variants.
	EncodeRemote(m Remote) ([]byte, error)
	DecodeRemote(blob []byte) (Remote, error)
}

// registry dispatches by format, mirroring newStandardCodec's registration
// of codec13/codec14/codec15 by version byte. Only format 1 exists today;
// a future format bump registers a new entry here without touching callers.
type registry struct {
	codecs map[int]Codec
}

func newRegistry() *registry {
	r := &registry{codecs: map[int]Codec{}}
	r.codecs[1] = jsonCodecV1{}
	return r
}

// StandardCodec is the Codec this module uses everywhere: the JSON format-1
// envelope, able to also reject any other format.
var StandardCodec Codec = standardCodec{newRegistry()}

type standardCodec struct{ *registry }

func (s standardCodec) codecFor(blob []byte) (Codec, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("manifest: decoding envelope: %w", err)
	}
	c, ok := s.codecs[env.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, env.Format)
	}
	return c, nil
}

func (s standardCodec) EncodeLocal(m Local) ([]byte, error) {
	return s.codecs[1].EncodeLocal(m)
}

func (s standardCodec) DecodeLocal(blob []byte) (Local, error) {
	c, err := s.codecFor(blob)
	if err != nil {
		return nil, err
	}
	return c.DecodeLocal(blob)
}

func (s standardCodec) EncodeRemote(m Remote) ([]byte, error) {
	return s.codecs[1].EncodeRemote(m)
}

func (s standardCodec) DecodeRemote(blob []byte) (Remote, error) {
	c, err := s.codecFor(blob)
	if err != nil {
		return nil, err
	}
	return c.DecodeRemote(blob)
}

// jsonCodecV1 implements format 1: a flat JSON object per variant, matching
// the field names in local_manifests.py/remote_manifests.py's marshmallow
// schemas (CamelCase json tags would drift from that and from other devices
// in the organisation, so field names are snake_case on the wire).
type jsonCodecV1 struct{}

const (
	typeLocalFile      = "local_file_manifest"
	typeLocalFolder    = "local_folder_manifest"
	typeLocalWorkspace = "local_workspace_manifest"
	typeLocalUser      = "local_user_manifest"
	typeRemoteFile      = "file_manifest"
	typeRemoteFolder    = "folder_manifest"
	typeRemoteWorkspace = "workspace_manifest"
	typeRemoteUser      = "user_manifest"
)

type wireCommon struct {
	Format        int       `json:"format"`
	Type          string    `json:"type"`
	Author        string    `json:"author"`
	BaseVersion   uint32    `json:"base_version"`
	NeedSync      bool      `json:"need_sync"`
	IsPlaceholder bool      `json:"is_placeholder"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

type wireBlockAccess struct {
	Access access.Access `json:"access"`
	Offset uint64        `json:"offset"`
	Size   uint32        `json:"size"`
	Digest string        `json:"digest"`
}

func toWireBlocks(in []BlockAccess) []wireBlockAccess {
	if in == nil {
		return nil
	}
	out := make([]wireBlockAccess, len(in))
	for i, b := range in {
		out[i] = wireBlockAccess{Access: b.Access, Offset: b.Offset, Size: b.Size, Digest: b.Digest}
	}
	return out
}

func fromWireBlocks(in []wireBlockAccess) []BlockAccess {
	if in == nil {
		return nil
	}
	out := make([]BlockAccess, len(in))
	for i, b := range in {
		out[i] = BlockAccess{Access: b.Access, Offset: b.Offset, Size: b.Size, Digest: b.Digest}
	}
	return out
}

func toWireDirtyBlocks(in []DirtyBlockAccess) []wireBlockAccess {
	if in == nil {
		return nil
	}
	out := make([]wireBlockAccess, len(in))
	for i, b := range in {
		out[i] = wireBlockAccess{Access: b.Access, Offset: b.Offset, Size: b.Size, Digest: b.Digest}
	}
	return out
}

func fromWireDirtyBlocks(in []wireBlockAccess) []DirtyBlockAccess {
	if in == nil {
		return nil
	}
	out := make([]DirtyBlockAccess, len(in))
	for i, b := range in {
		out[i] = DirtyBlockAccess{Access: b.Access, Offset: b.Offset, Size: b.Size, Digest: b.Digest}
	}
	return out
}

type wireFile struct {
	wireCommon
	Size        uint64            `json:"size"`
	Blocks      []wireBlockAccess `json:"blocks"`
	DirtyBlocks []wireBlockAccess `json:"dirty_blocks"`
}

type wireFolder struct {
	wireCommon
	Children map[string]access.Access `json:"children"`
}

type wireWorkspace struct {
	wireFolder
	Creator      string   `json:"creator"`
	Participants []string `json:"participants"`
}

type wireUser struct {
	wireFolder
	LastProcessedMessage uint32 `json:"last_processed_message"`
}

func childrenToWire(in map[ids.EntryName]access.Access) map[string]access.Access {
	out := make(map[string]access.Access, len(in))
	for name, a := range in {
		out[string(name)] = a
	}
	return out
}

func childrenFromWire(in map[string]access.Access) (map[ids.EntryName]access.Access, error) {
	out := make(map[ids.EntryName]access.Access, len(in))
	for raw, a := range in {
		name, err := ids.NewEntryName(raw)
		if err != nil {
			return nil, fmt.Errorf("manifest: decoding children: %w", err)
		}
		out[name] = a
	}
	return out, nil
}

func usersToWire(in []ids.UserID) []string {
	out := make([]string, len(in))
	for i, u := range in {
		out[i] = string(u)
	}
	return out
}

func usersFromWire(in []string) ([]ids.UserID, error) {
	out := make([]ids.UserID, len(in))
	for i, raw := range in {
		u, err := ids.NewUserID(raw)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

func (jsonCodecV1) EncodeLocal(m Local) ([]byte, error) {
	switch v := m.(type) {
	case File:
		return json.Marshal(wireFile{
			wireCommon:  localCommonToWire(typeLocalFile, v.Common),
			Size:        v.Size,
			Blocks:      toWireBlocks(v.Blocks),
			DirtyBlocks: toWireDirtyBlocks(v.DirtyBlocks),
		})
	case Folder:
		return json.Marshal(wireFolder{
			wireCommon: localCommonToWire(typeLocalFolder, v.Common),
			Children:   childrenToWire(v.Children),
		})
	case Workspace:
		return json.Marshal(wireWorkspace{
			wireFolder: wireFolder{
				wireCommon: localCommonToWire(typeLocalWorkspace, v.Common),
				Children:   childrenToWire(v.Children),
			},
			Creator:      string(v.Creator),
			Participants: usersToWire(v.Participants),
		})
	case User:
		return json.Marshal(wireUser{
			wireFolder: wireFolder{
				wireCommon: localCommonToWire(typeLocalUser, v.Common),
				Children:   childrenToWire(v.Children),
			},
			LastProcessedMessage: v.LastProcessedMessage,
		})
	default:
		return nil, fmt.Errorf("manifest: EncodeLocal: unsupported type %T", m)
	}
}

func localCommonToWire(typ string, c Common) wireCommon {
	return wireCommon{
		Format:        1,
		Type:          typ,
		Author:        string(c.Author),
		BaseVersion:   c.BaseVersion,
		NeedSync:      c.NeedSync,
		IsPlaceholder: c.IsPlaceholder,
		Created:       c.Created,
		Updated:       c.Updated,
	}
}

func wireToCommon(w wireCommon) (Common, error) {
	author, err := ids.NewDeviceID(w.Author)
	if err != nil {
		return Common{}, err
	}
	return Common{
		Author:        author,
		BaseVersion:   w.BaseVersion,
		NeedSync:      w.NeedSync,
		IsPlaceholder: w.IsPlaceholder,
		Created:       w.Created,
		Updated:       w.Updated,
	}, nil
}

func (jsonCodecV1) DecodeLocal(blob []byte) (Local, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("manifest: decoding envelope: %w", err)
	}
	switch env.Type {
	case typeLocalFile:
		var w wireFile
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, fmt.Errorf("manifest: decoding file manifest: %w", err)
		}
		common, err := wireToCommon(w.wireCommon)
		if err != nil {
			return nil, err
		}
		return File{
			Common:      common,
			Size:        w.Size,
			Blocks:      fromWireBlocks(w.Blocks),
			DirtyBlocks: fromWireDirtyBlocks(w.DirtyBlocks),
		}, nil
	case typeLocalFolder:
		var w wireFolder
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, fmt.Errorf("manifest: decoding folder manifest: %w", err)
		}
		common, err := wireToCommon(w.wireCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		return Folder{Common: common, Children: children}, nil
	case typeLocalWorkspace:
		var w wireWorkspace
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, fmt.Errorf("manifest: decoding workspace manifest: %w", err)
		}
		common, err := wireToCommon(w.wireCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		creator, err := ids.NewUserID(w.Creator)
		if err != nil {
			return nil, err
		}
		participants, err := usersFromWire(w.Participants)
		if err != nil {
			return nil, err
		}
		return Workspace{
			Folder:       Folder{Common: common, Children: children},
			Creator:      creator,
			Participants: participants,
		}, nil
	case typeLocalUser:
		var w wireUser
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, fmt.Errorf("manifest: decoding user manifest: %w", err)
		}
		common, err := wireToCommon(w.wireCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		return User{Folder: Folder{Common: common, Children: children}, LastProcessedMessage: w.LastProcessedMessage}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

type wireRemoteCommon struct {
	Format  int       `json:"format"`
	Type    string    `json:"type"`
	Author  string    `json:"author"`
	Version uint32    `json:"version"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

type wireRemoteFile struct {
	wireRemoteCommon
	Size   uint64            `json:"size"`
	Blocks []wireBlockAccess `json:"blocks"`
}

type wireRemoteFolder struct {
	wireRemoteCommon
	Children map[string]access.Access `json:"children"`
}

type wireRemoteWorkspace struct {
	wireRemoteFolder
	Creator      string   `json:"creator"`
	Participants []string `json:"participants"`
}

type wireRemoteUser struct {
	wireRemoteFolder
	LastProcessedMessage uint32 `json:"last_processed_message"`
}

func remoteCommonToWire(typ string, c remoteCommon) wireRemoteCommon {
	return wireRemoteCommon{
		Format:  1,
		Type:    typ,
		Author:  string(c.Author),
		Version: c.Version,
		Created: c.Created,
		Updated: c.Updated,
	}
}

func wireToRemoteCommon(w wireRemoteCommon) (remoteCommon, error) {
	author, err := ids.NewDeviceID(w.Author)
	if err != nil {
		return remoteCommon{}, err
	}
	return remoteCommon{Author: author, Version: w.Version, Created: w.Created, Updated: w.Updated}, nil
}

func (jsonCodecV1) EncodeRemote(m Remote) ([]byte, error) {
	switch v := m.(type) {
	case RemoteFile:
		return json.Marshal(wireRemoteFile{
			wireRemoteCommon: remoteCommonToWire(typeRemoteFile, v.remoteCommon),
			Size:             v.Size,
			Blocks:           toWireBlocks(v.Blocks),
		})
	case RemoteFolder:
		return json.Marshal(wireRemoteFolder{
			wireRemoteCommon: remoteCommonToWire(typeRemoteFolder, v.remoteCommon),
			Children:         childrenToWire(v.Children),
		})
	case RemoteWorkspace:
		return json.Marshal(wireRemoteWorkspace{
			wireRemoteFolder: wireRemoteFolder{
				wireRemoteCommon: remoteCommonToWire(typeRemoteWorkspace, v.remoteCommon),
				Children:         childrenToWire(v.Children),
			},
			Creator:      string(v.Creator),
			Participants: usersToWire(v.Participants),
		})
	case RemoteUser:
		return json.Marshal(wireRemoteUser{
			wireRemoteFolder: wireRemoteFolder{
				wireRemoteCommon: remoteCommonToWire(typeRemoteUser, v.remoteCommon),
				Children:         childrenToWire(v.Children),
			},
			LastProcessedMessage: v.LastProcessedMessage,
		})
	default:
		return nil, fmt.Errorf("manifest: EncodeRemote: unsupported type %T", m)
	}
}

func (jsonCodecV1) DecodeRemote(blob []byte) (Remote, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("manifest: decoding envelope: %w", err)
	}
	switch env.Type {
	case typeRemoteFile:
		var w wireRemoteFile
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, err
		}
		common, err := wireToRemoteCommon(w.wireRemoteCommon)
		if err != nil {
			return nil, err
		}
		return RemoteFile{remoteCommon: common, Size: w.Size, Blocks: fromWireBlocks(w.Blocks)}, nil
	case typeRemoteFolder:
		var w wireRemoteFolder
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, err
		}
		common, err := wireToRemoteCommon(w.wireRemoteCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		return RemoteFolder{remoteCommon: common, Children: children}, nil
	case typeRemoteWorkspace:
		var w wireRemoteWorkspace
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, err
		}
		common, err := wireToRemoteCommon(w.wireRemoteCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		creator, err := ids.NewUserID(w.Creator)
		if err != nil {
			return nil, err
		}
		participants, err := usersFromWire(w.Participants)
		if err != nil {
			return nil, err
		}
		return RemoteWorkspace{
			RemoteFolder: RemoteFolder{remoteCommon: common, Children: children},
			Creator:      creator,
			Participants: participants,
		}, nil
	case typeRemoteUser:
		var w wireRemoteUser
		if err := json.Unmarshal(blob, &w); err != nil {
			return nil, err
		}
		common, err := wireToRemoteCommon(w.wireRemoteCommon)
		if err != nil {
			return nil, err
		}
		children, err := childrenFromWire(w.Children)
		if err != nil {
			return nil, err
		}
		return RemoteUser{RemoteFolder: RemoteFolder{remoteCommon: common, Children: children}, LastProcessedMessage: w.LastProcessedMessage}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
