// Package cache implements the Manifest Cache (spec.md §4.1): an in-memory
// map of Access to current local manifest, backed by the Local Blob Store,
// write-through on every Set.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/internal/debug"
	"github.com/opaquecloud/lffs/lbs"
	"github.com/opaquecloud/lffs/manifest"
)

// MissLocal is raised by Get when an Access is absent from both the
// in-memory map and the LBS, and is not the root access (which is
// synthesised instead, per spec.md §4.1 and invariant 1).
type MissLocal struct {
	Access access.Access
}

func (e *MissLocal) Error() string {
	return fmt.Sprintf("cache: miss for local access %s", e.Access)
}

// SerdeError wraps a decoding failure on an LBS blob. Per spec.md §7, this
// must be surfaced, never swallowed.
type SerdeError struct {
	Access access.Access
	Err    error
}

func (e *SerdeError) Error() string {
	return fmt.Sprintf("cache: malformed blob for %s: %v", e.Access, e.Err)
}

func (e *SerdeError) Unwrap() error { return e.Err }

// Cache is the single-owner, lock-free-by-contract manifest cache described
// in spec.md §4.1 and §9 ("Cache concurrency: single-owner; no locks").
// The mutex below is defensive bookkeeping for Go's race detector, not a
// concurrency model change: callers are still expected to drive the cache
// from one goroutine, matching the single-threaded cooperative core model
// of spec.md §5.
type Cache struct {
	mu      sync.Mutex
	entries map[ids.EntryID]manifest.Local
	store   lbs.Store
	root    access.Access
	device  ids.DeviceID
	codec   manifest.Codec
}

// New builds a Cache backed by store. root is the device's a priori known
// user-manifest Access (spec.md §3 invariant 1); device authors any
// synthetic manifest materialised on a root LBS-miss.
func New(store lbs.Store, root access.Access, device ids.DeviceID) *Cache {
	debug.Assert(store != nil, "cache.New: store must not be nil")
	return &Cache{
		entries: map[ids.EntryID]manifest.Local{},
		store:   store,
		root:    root,
		device:  device,
		codec:   manifest.StandardCodec,
	}
}

// Root returns the cache's root Access.
func (c *Cache) Root() access.Access { return c.root }

// Get implements the contract of spec.md §4.1: in-memory hit, then LBS,
// then (root only) synthetic v0 UserManifest, then MissLocal.
func (c *Cache) Get(a access.Access) (manifest.Local, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(a)
}

func (c *Cache) getLocked(a access.Access) (manifest.Local, error) {
	if m, ok := c.entries[a.ID()]; ok {
		return m, nil
	}
	blob, err := c.store.Get(a)
	if err != nil {
		if errors.Is(err, lbs.ErrMissing) {
			if a.ID() == c.root.ID() {
				root := manifest.NewUser(c.device)
				c.entries[a.ID()] = root
				return root, nil
			}
			return nil, &MissLocal{Access: a}
		}
		return nil, fmt.Errorf("cache: reading %s: %w", a, err)
	}
	m, err := c.codec.DecodeLocal(blob)
	if err != nil {
		return nil, &SerdeError{Access: a, Err: err}
	}
	c.entries[a.ID()] = m
	return m, nil
}

// Set writes m through to the LBS under a and updates the in-memory map.
// durable controls whether the LBS write is queued for eventual propagation
// to a slow remote mirror (spec.md §6).
func (c *Cache) Set(a access.Access, m manifest.Local, durable bool) error {
	blob, err := c.codec.EncodeLocal(m)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", a, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(a, blob, durable); err != nil {
		return fmt.Errorf("cache: writing %s: %w", a, err)
	}
	c.entries[a.ID()] = m
	return nil
}

// Invalidate clears both the LBS entry and the in-memory entry for a,
// marking it "outdated" so the next Get re-fetches (or re-synthesises) it.
func (c *Cache) Invalidate(a access.Access) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, a.ID())
	if err := c.store.Clear(a); err != nil {
		return fmt.Errorf("cache: invalidating %s: %w", a, err)
	}
	return nil
}
