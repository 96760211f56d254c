// Package access defines Access, the sole handle by which one manifest
// refers to another: an entry identifier paired with the symmetric key
// needed to decrypt that entry's blob in the Local Blob Store.
package access

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/opaquecloud/lffs/ids"
)

// KeySize is the length in bytes of an Access's symmetric key: 256 bits,
// matching the key size internal/seal expects for AES-GCM.
const KeySize = 32

// Access binds an EntryID to the symmetric key protecting that entry's
// blob. Two distinct accesses never share an EntryID (spec.md §3); nothing
// in this package enforces that globally, it is a property of how accesses
// are allocated (see New).
type Access struct {
	id  ids.EntryID
	key [KeySize]byte
}

// New allocates a fresh Access: a new random EntryID and a new random key.
// Every mutation that needs a new identity (file/folder create, recursive
// copy) goes through this constructor so that no two accesses ever share an
// EntryID by construction.
func New() (Access, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return Access{}, fmt.Errorf("access.New: %w", err)
	}
	return Access{id: ids.NewEntryID(), key: key}, nil
}

// FromParts reconstructs an Access from an already-known id and key, e.g.
// when decoding a parent manifest's children map.
func FromParts(id ids.EntryID, key [KeySize]byte) Access {
	return Access{id: id, key: key}
}

func (a Access) ID() ids.EntryID { return a.id }

func (a Access) Key() [KeySize]byte { return a.key }

// IsZero reports whether a is the zero Access (no entry, no key).
func (a Access) IsZero() bool {
	return a.id == ids.EntryID{} && a.key == [KeySize]byte{}
}

func (a Access) String() string {
	return a.id.String()
}

// accessJSON is the wire shape for an Access: the entry id plus its key,
// hex-encoded, so accesses can be embedded in a FolderManifest's children
// map and in the on-disk manifest envelope.
type accessJSON struct {
	ID  ids.EntryID `json:"id"`
	Key string      `json:"key"`
}

// MarshalJSON implements json.Marshaler.
func (a Access) MarshalJSON() ([]byte, error) {
	return json.Marshal(accessJSON{ID: a.id, Key: hex.EncodeToString(a.key[:])})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Access) UnmarshalJSON(b []byte) error {
	var raw accessJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("access.UnmarshalJSON: %w", err)
	}
	decoded, err := hex.DecodeString(raw.Key)
	if err != nil || len(decoded) != KeySize {
		return fmt.Errorf("access.UnmarshalJSON: invalid key %q", raw.Key)
	}
	var key [KeySize]byte
	copy(key[:], decoded)
	a.id = raw.ID
	a.key = key
	return nil
}
