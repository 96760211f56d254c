// Package resolver implements the Path Resolver (spec.md §4.2): walking
// from the root Access to an entry, enforcing type constraints and
// surfacing cache misses as typed failures.
package resolver

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/internal/debug"
	"github.com/opaquecloud/lffs/manifest"
)

// maxConcurrentFetches bounds the number of in-flight LBS fetches during
// ResolveMulti's presence-check walk, matching the teacher's tree.grow
// constant (internal/tree/tree_walking.go).
const maxConcurrentFetches = 8

// ErrInvalid is returned when a path is not a well-formed, normalised
// absolute path of EntryName segments.
var ErrInvalid = errors.New("resolver: invalid path")

// NoSuchEntry is returned when a name is absent from a folder's children.
type NoSuchEntry struct{ Path string }

func (e *NoSuchEntry) Error() string { return fmt.Sprintf("resolver: no such entry: %s", e.Path) }

// NotADirectory is returned when traversal passes through a non-folderish
// manifest.
type NotADirectory struct{ Path string }

func (e *NotADirectory) Error() string { return fmt.Sprintf("resolver: not a directory: %s", e.Path) }

// MultiMissLocal collects every Access missing from the cache during a
// ResolveMulti walk, so the sync engine can bulk-fetch them atomically.
type MultiMissLocal struct {
	Accesses []access.Access
}

func (e *MultiMissLocal) Error() string {
	return fmt.Sprintf("resolver: %d accesses missing locally", len(e.Accesses))
}

// Hop is one (Access, Manifest) pair visited while resolving a path,
// delivered to an optional collector callback.
type Hop struct {
	Access   access.Access
	Manifest manifest.Local
}

// Resolver walks paths against a Cache.
type Resolver struct {
	cache *cache.Cache
}

func New(c *cache.Cache) *Resolver {
	debug.Assert(c != nil, "resolver.New: cache must not be nil")
	return &Resolver{cache: c}
}

// Segments splits a normalised absolute path into its EntryName components.
// "/" yields a nil, empty slice.
func Segments(path string) ([]ids.EntryName, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("%w: %q: must be absolute", ErrInvalid, path)
	}
	if path == "/" {
		return nil, nil
	}
	trimmed := strings.TrimSuffix(path, "/")
	parts := strings.Split(trimmed[1:], "/")
	segments := make([]ids.EntryName, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return nil, fmt.Errorf("%w: %q: contains empty or relative segment", ErrInvalid, path)
		}
		name, err := ids.NewEntryName(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalid, path, err)
		}
		segments = append(segments, name)
	}
	return segments, nil
}

// Resolve walks path from the cache's root, invoking collect (if non-nil)
// for every (Access, Manifest) hop, including the final one. A MissLocal
// encountered mid-walk aborts immediately, per spec.md §4.2.
func (r *Resolver) Resolve(path string, collect func(Hop)) (access.Access, manifest.Local, error) {
	segments, err := Segments(path)
	if err != nil {
		return access.Access{}, nil, err
	}

	current := r.cache.Root()
	m, err := r.cache.Get(current)
	if err != nil {
		return access.Access{}, nil, err
	}
	if collect != nil {
		collect(Hop{Access: current, Manifest: m})
	}

	for i, name := range segments {
		children, ok := childrenOf(m)
		if !ok {
			return access.Access{}, nil, &NotADirectory{Path: pathUpTo(segments, i)}
		}
		next, ok := children[name]
		if !ok {
			return access.Access{}, nil, &NoSuchEntry{Path: pathUpTo(segments, i+1)}
		}
		current = next
		m, err = r.cache.Get(current)
		if err != nil {
			return access.Access{}, nil, err
		}
		if collect != nil {
			collect(Hop{Access: current, Manifest: m})
		}
	}
	return current, m, nil
}

// ResolveMulti behaves like Resolve, but a MissLocal along the walk does not
// abort it: the walk continues as far as the manifests already in hand
// allow, and every missing Access encountered is collected into a single
// MultiMissLocal, so the sync engine can bulk-fetch them in one round trip
// (spec.md §4.2, §5).
//
// Concurrent LBS fetches triggered by a single call are bounded at
// maxConcurrentFetches, matching the teacher's tree.grow pattern
// (internal/tree/tree_walking.go), via a buffered semaphore channel guarding
// calls into the cache.
func (r *Resolver) ResolveMulti(path string) (access.Access, manifest.Local, error) {
	segments, err := Segments(path)
	if err != nil {
		return access.Access{}, nil, err
	}

	var mu sync.Mutex
	var missing []access.Access
	sem := make(chan struct{}, maxConcurrentFetches)
	get := func(a access.Access) (manifest.Local, error) {
		sem <- struct{}{}
		defer func() { <-sem }()
		m, err := r.cache.Get(a)
		if err != nil {
			var missLocal *cache.MissLocal
			if errors.As(err, &missLocal) {
				mu.Lock()
				missing = append(missing, missLocal.Access)
				mu.Unlock()
				return nil, nil
			}
			return nil, err
		}
		return m, nil
	}

	current := r.cache.Root()
	m, err := get(current)
	if err != nil {
		return access.Access{}, nil, err
	}

	for i := 0; i < len(segments); i++ {
		if m == nil {
			break
		}
		children, isFolderish := childrenOf(m)
		if !isFolderish {
			return access.Access{}, nil, &NotADirectory{Path: pathUpTo(segments, i)}
		}
		next, found := children[segments[i]]
		if !found {
			return access.Access{}, nil, &NoSuchEntry{Path: pathUpTo(segments, i+1)}
		}
		current = next
		m, err = get(current)
		if err != nil {
			return access.Access{}, nil, err
		}
	}

	if len(missing) > 0 {
		return access.Access{}, nil, &MultiMissLocal{Accesses: missing}
	}
	return current, m, nil
}

func childrenOf(m manifest.Local) (map[ids.EntryName]access.Access, bool) {
	switch v := m.(type) {
	case manifest.Folder:
		return v.Children, true
	case manifest.Workspace:
		return v.Children, true
	case manifest.User:
		return v.Children, true
	default:
		return nil, false
	}
}

func pathUpTo(segments []ids.EntryName, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte('/')
		b.WriteString(segments[i].String())
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
