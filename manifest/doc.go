// Package manifest defines the four local manifest variants (File, Folder,
// Workspace, User), their remote counterparts, and the evolve-style pure
// transitions between immutable values that the Mutator builds on.
//
// Modelled on parsec's local_manifests.py/remote_manifests.py: Workspace and
// User "inherit" Folder there through Python subclassing; here that becomes
// two capability predicates (IsFolderish, IsFile) on a common interface,
// following the teacher's own preference for small interfaces over
// class-hierarchy polymorphism (see tree.Node's flag-based capabilities).
package manifest
