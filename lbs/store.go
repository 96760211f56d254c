package lbs

import (
	"errors"
	"fmt"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/internal/config"
	"github.com/opaquecloud/lffs/internal/seal"
	"github.com/opaquecloud/lffs/internal/storage"
)

// ErrMissing is returned by Get when no blob is stored for the given
// Access. It is the Go rendering of spec.md §6's "bytes | Missing".
var ErrMissing = errors.New("lbs: missing")

// Store is the contract the manifest cache consumes: an opaque,
// authenticated-encrypted blob store keyed by Access (spec.md §6).
type Store interface {
	// Get returns the plaintext stored for a, or a wrapper of ErrMissing.
	Get(a access.Access) ([]byte, error)
	// Set seals plaintext under a's key and stores it. When durable is
	// true the write must eventually reach the slow backend of a Paired
	// store; when false it may remain fast-store-only.
	Set(a access.Access, plaintext []byte, durable bool) error
	// Clear deletes the blob for a from the backend (for a Paired backend,
	// from both its slow and fast stores); a blob that is already absent is
	// not an error (the manifest cache's "outdated" semantics).
	Clear(a access.Access) error
}

func keyFor(a access.Access) storage.Key {
	return storage.Key(a.ID().String())
}

// New builds the Store selected by c.Storage: Disk, a null sink, an S3
// mirror, or a Paired composition of a fast disk store with a slow S3
// mirror when c.Storage is "paired".
func New(c *config.C) (Store, error) {
	switch c.Storage {
	case "paired":
		fast := storage.NewDiskStore(c.DiskStoreDir)
		slowConfig := *c
		slowConfig.Storage = "s3"
		slow, err := storage.NewBackend(&slowConfig)
		if err != nil {
			return nil, fmt.Errorf("lbs.New: building slow backend: %w", err)
		}
		paired, err := storage.NewPaired(fast, slow, c.PropagationLogFilePath())
		if err != nil {
			return nil, fmt.Errorf("lbs.New: building paired backend: %w", err)
		}
		return &sealedStore{backend: paired}, nil
	default:
		backend, err := storage.NewBackend(c)
		if err != nil {
			return nil, fmt.Errorf("lbs.New: %w", err)
		}
		return &sealedStore{backend: backend}, nil
	}
}

// sealedStore adapts a storage.Store to the Access-keyed, encrypted Store
// contract: every payload is sealed with internal/seal under the Access's
// own key before it reaches the backend, and opened on the way back.
type sealedStore struct {
	backend storage.Store
}

func (s *sealedStore) Get(a access.Access) ([]byte, error) {
	key := a.Key()
	sealed, err := s.backend.Get(keyFor(a))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, a)
		}
		return nil, err
	}
	plaintext, err := seal.Open(key[:], []byte(sealed))
	if err != nil {
		return nil, fmt.Errorf("lbs: opening blob for %s: %w", a, err)
	}
	return plaintext, nil
}

func (s *sealedStore) Set(a access.Access, plaintext []byte, durable bool) error {
	key := a.Key()
	sealedBlob, err := seal.Seal(key[:], plaintext)
	if err != nil {
		return fmt.Errorf("lbs: sealing blob for %s: %w", a, err)
	}
	if paired, ok := s.backend.(*storage.Paired); ok && !durable {
		return paired.PutTransient(keyFor(a), storage.Value(sealedBlob))
	}
	return s.backend.Put(keyFor(a), storage.Value(sealedBlob))
}

func (s *sealedStore) Clear(a access.Access) error {
	err := s.backend.Delete(keyFor(a))
	if err != nil && errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
