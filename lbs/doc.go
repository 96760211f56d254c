// Package lbs implements the Local Blob Store: the opaque,
// authenticated-encrypted key-value layer the manifest cache is backed by
// (spec.md §6). It adapts the teacher's internal/storage backends (Disk,
// InMemory, S3, Paired) to the Access-keyed contract LFFS needs:
// Get(Access) -> bytes|Missing, Set(Access, bytes, durable), Clear(Access),
// sealing every payload with internal/seal before it reaches a backend.
package lbs
