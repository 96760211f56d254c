package manifest

import (
	"github.com/opaquecloud/lffs/access"
)

// BlockAccess addresses one clean, remotely-synced block of a file's
// content. Only the manifest-level shape is specified here; block I/O
// itself (splitting, reading, flushing) is an external collaborator, so
// this type carries just enough to round-trip through the manifest
// envelope. Grounded in the teacher's block.RepositoryRef (content-addressed
// by digest) and block.IndexRef (opaque per-block identifier).
type BlockAccess struct {
	Access access.Access
	Offset uint64
	Size   uint32
	Digest string
}

// DirtyBlockAccess addresses one unsynced local delta. It carries the same
// fields as BlockAccess; the move/copy algorithm copies both verbatim when
// duplicating a file manifest (spec.md §4.3 step 6b), which is why this
// package keeps them as distinct named types rather than collapsing them
// into one, even though their shape coincides today.
type DirtyBlockAccess struct {
	Access access.Access
	Offset uint64
	Size   uint32
	Digest string
}
