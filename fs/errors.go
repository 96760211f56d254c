package fs

import "fmt"

// NoSuchEntry, NotADirectory and MissLocal/MultiMissLocal are not declared
// in this package: every Mutator method that walks a path returns the
// resolver or cache error types as they are,
// matching spec.md §7's "kinds, not type names" guidance.

// IsADirectory is returned when an operation expected a file but found a
// folder (e.g. unlink on a folder, move of a file onto an existing
// folder).
type IsADirectory struct{ Path string }

func (e *IsADirectory) Error() string { return fmt.Sprintf("fs: is a directory: %s", e.Path) }

// DirectoryNotEmpty is returned by rmdir, or by move/copy onto an existing
// non-empty folder.
type DirectoryNotEmpty struct{ Path string }

func (e *DirectoryNotEmpty) Error() string {
	return fmt.Sprintf("fs: directory not empty: %s", e.Path)
}

// FileExists is returned when a create-style operation's target name is
// already taken.
type FileExists struct{ Path string }

func (e *FileExists) Error() string { return fmt.Sprintf("fs: file exists: %s", e.Path) }

// PermissionDenied covers the root-mutation and workspace constraints of
// spec.md §4.3: touch/mkdir directly under root, workspace_create outside
// root, moving/renaming a workspace via move instead of workspace_rename,
// and moving anything non-workspace directly under root.
type PermissionDenied struct {
	Path string
	Dst  string
	Msg  string
}

func (e *PermissionDenied) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "permission denied"
	}
	if e.Dst != "" {
		return fmt.Sprintf("fs: %s: %s -> %s", msg, e.Path, e.Dst)
	}
	return fmt.Sprintf("fs: %s: %s", msg, e.Path)
}

// InvalidArgument is returned when move/copy would place dst inside src.
type InvalidArgument struct {
	Src, Dst string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("fs: invalid argument: cannot move/copy %s into its descendant %s", e.Src, e.Dst)
}
