package ids

import (
	"fmt"
	"regexp"
)

// wordPattern matches parsec's \w{1,32} rule for organisation, user and
// device names: letters, digits and underscore, one to thirty-two of them.
var wordPattern = regexp.MustCompile(`^\w{1,32}$`)

// OrganisationID identifies one tenant of the backend.
type OrganisationID string

// NewOrganisationID validates raw and returns it as an OrganisationID.
func NewOrganisationID(raw string) (OrganisationID, error) {
	if !wordPattern.MatchString(raw) {
		return "", errorf("NewOrganisationID", "invalid organisation id: %q", raw)
	}
	return OrganisationID(raw), nil
}

func (id OrganisationID) String() string { return string(id) }

// UserID identifies one user within an organisation.
type UserID string

// NewUserID validates raw and returns it as a UserID.
func NewUserID(raw string) (UserID, error) {
	if !wordPattern.MatchString(raw) {
		return "", errorf("NewUserID", "invalid user id: %q", raw)
	}
	return UserID(raw), nil
}

func (id UserID) String() string { return string(id) }

// DeviceName identifies one of a user's devices.
type DeviceName string

// NewDeviceName validates raw and returns it as a DeviceName.
func NewDeviceName(raw string) (DeviceName, error) {
	if !wordPattern.MatchString(raw) {
		return "", errorf("NewDeviceName", "invalid device name: %q", raw)
	}
	return DeviceName(raw), nil
}

func (n DeviceName) String() string { return string(n) }

// DeviceID identifies one device as "<UserID>@<DeviceName>".
type DeviceID string

var deviceIDPattern = regexp.MustCompile(`^\w{1,32}@\w{1,32}$`)

// NewDeviceID validates raw and returns it as a DeviceID.
func NewDeviceID(raw string) (DeviceID, error) {
	if !deviceIDPattern.MatchString(raw) {
		return "", errorf("NewDeviceID", "invalid device id: %q", raw)
	}
	return DeviceID(raw), nil
}

// DeviceIDFromParts composes a DeviceID from its constituents, validating
// each in turn.
func DeviceIDFromParts(user UserID, device DeviceName) (DeviceID, error) {
	return NewDeviceID(fmt.Sprintf("%s@%s", user, device))
}

func (id DeviceID) String() string { return string(id) }

// UserID extracts the user portion of a DeviceID, e.g. "alice" from
// "alice@laptop". Safe to call on any value that passed NewDeviceID.
func (id DeviceID) UserID() UserID {
	s := string(id)
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			return UserID(s[:i])
		}
	}
	return UserID(s)
}
