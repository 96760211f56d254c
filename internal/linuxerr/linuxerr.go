// Package linuxerr holds the POSIX errno-equivalent sentinels that fs.Errno
// maps Mutator error kinds onto, for callers at the filesystem boundary
// (e.g. a future 9P or FUSE adapter) that need POSIX semantics rather than
// the typed error kinds the core returns internally.
package linuxerr

import "errors"

var (
	ENOENT    = errors.New("no such file or directory")
	ENOTDIR   = errors.New("not a directory")
	EISDIR    = errors.New("is a directory")
	ENOTEMPTY = errors.New("directory not empty")
	EACCES    = errors.New("permission denied")
	EEXIST    = errors.New("file exists")
	EINVAL    = errors.New("invalid argument")
)
