package storage

import (
	"errors"
	"fmt"

	"github.com/opaquecloud/lffs/internal/config"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
)

// Key identifies a value in a Store. Backends in this package treat it as an
// opaque string; the lbs package derives a Key from an Access's id before
// calling down into a Store, so every Key in this codebase is the 36-byte
// canonical string form of a uuid.UUID.
type Key string

// Value is the opaque byte payload associated with a Key. Callers (the lbs
// package) are responsible for encryption and authentication before a Value
// reaches a Store, and after a Value leaves one.
type Value []byte

// Store is the minimal backend contract: get, put, delete by Key. All
// concrete backends in this package (and Paired, which composes two of
// them) implement it. lbs.sealedStore is the only caller, so the interface
// carries nothing beyond what it needs: no listing, no membership checks.
type Store interface {
	Get(Key) (Value, error)
	Put(Key, Value) error
	Delete(Key) error
}

// NewBackend builds the raw Store selected by c.Storage. The lbs package
// wraps whatever this returns with encryption and, for "paired", write-back
// propagation; this function only picks the underlying byte store.
func NewBackend(c *config.C) (Store, error) {
	switch c.Storage {
	case "disk", "paired":
		return NewDiskStore(c.DiskStoreDir), nil
	case "null":
		return NullStore{}, nil
	case "s3":
		return newS3Store(c)
	default:
		return nil, fmt.Errorf("%q: %w", c.Storage, ErrNotImplemented)
	}
}
