package ids

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// EntryID is the 128-bit identifier of a manifest, unique for the lifetime
// of the entry it names. Grounded in the sergeknystautas-schmux example's
// use of google/uuid for opaque identifiers, rather than the teacher's
// decorated 64-bit timestamp (tree.Node.info.ID), because the specification
// requires a genuine 128-bit UUID.
type EntryID uuid.UUID

// NewEntryID generates a fresh, random EntryID.
func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

// ParseEntryID parses the canonical string form of an EntryID.
func ParseEntryID(raw string) (EntryID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return EntryID{}, errorf("ParseEntryID", "%q: %v", raw, err)
	}
	return EntryID(u), nil
}

func (id EntryID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler so EntryID can be used as a
// JSON map key or field.
func (id EntryID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *EntryID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// EntryName is the name of one entry within its parent folder: 1-256 bytes,
// containing neither '/' nor NUL, and not equal to "." or "..".
type EntryName string

// NewEntryName normalises raw to Unicode NFC (so that two devices typing the
// same name with different combining-character sequences land on the same
// child slot) and validates it against the rules above.
func NewEntryName(raw string) (EntryName, error) {
	normalised := norm.NFC.String(raw)
	n := len(normalised)
	if n == 0 || n > 256 {
		return "", errorf("NewEntryName", "length %d out of range [1,256]: %q", n, raw)
	}
	if strings.ContainsRune(normalised, '/') || strings.ContainsRune(normalised, 0) {
		return "", errorf("NewEntryName", "contains '/' or NUL: %q", raw)
	}
	if normalised == "." || normalised == ".." {
		return "", errorf("NewEntryName", "reserved name: %q", raw)
	}
	return EntryName(normalised), nil
}

func (n EntryName) String() string { return string(n) }
