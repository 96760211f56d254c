package lbs

import "github.com/opaquecloud/lffs/internal/storage"

// NewInMemory builds a Store backed by an in-memory map, for use by the
// cache/resolver/mutator test suites, mirroring internal/storage.InMemory's
// role in the teacher's own tests.
func NewInMemory() Store {
	return &sealedStore{backend: &storage.InMemory{}}
}
