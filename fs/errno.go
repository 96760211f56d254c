package fs

import (
	"errors"
	"fmt"

	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/internal/linuxerr"
	"github.com/opaquecloud/lffs/resolver"
)

// Errno maps a Mutator error kind onto its POSIX errno-equivalent
// (spec.md §7), for callers at the filesystem boundary (a future 9P or
// FUSE adapter) that need POSIX semantics rather than the typed kinds the
// core returns internally. The core itself (fs.Mutator) never calls this:
// mirroring how linuxerr values are only ever constructed at
// cmd/musclefs's boundary in the teacher, not inside internal/tree.
func Errno(err error) error {
	if err == nil {
		return nil
	}
	var (
		noSuchEntry       *resolver.NoSuchEntry
		notADirectory     *resolver.NotADirectory
		isADirectory      *IsADirectory
		directoryNotEmpty *DirectoryNotEmpty
		fileExists        *FileExists
		permissionDenied  *PermissionDenied
		invalidArgument   *InvalidArgument
		serdeError        *cache.SerdeError
	)
	switch {
	case errors.As(err, &noSuchEntry):
		return fmt.Errorf("%s: %w", err, linuxerr.ENOENT)
	case errors.As(err, &notADirectory):
		return fmt.Errorf("%s: %w", err, linuxerr.ENOTDIR)
	case errors.As(err, &isADirectory):
		return fmt.Errorf("%s: %w", err, linuxerr.EISDIR)
	case errors.As(err, &directoryNotEmpty):
		return fmt.Errorf("%s: %w", err, linuxerr.ENOTEMPTY)
	case errors.As(err, &fileExists):
		return fmt.Errorf("%s: %w", err, linuxerr.EEXIST)
	case errors.As(err, &permissionDenied):
		return fmt.Errorf("%s: %w", err, linuxerr.EACCES)
	case errors.As(err, &invalidArgument):
		return fmt.Errorf("%s: %w", err, linuxerr.EINVAL)
	case errors.As(err, &serdeError):
		// Malformed blobs have no POSIX analogue; surfaced as-is so the
		// caller doesn't mistake storage corruption for a normal ENOENT.
		return err
	default:
		return err
	}
}
