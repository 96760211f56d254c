// Package ids defines the strongly-typed, validated identifiers that the
// rest of LFFS builds on: organisation, user, device and entry identity, and
// entry names. Each type is constructed through a validating function that
// rejects malformed input, in the spirit of the teacher's
// storage.Pointer/block.Ref value types, rather than left as a bare string
// passed around by convention.
package ids
