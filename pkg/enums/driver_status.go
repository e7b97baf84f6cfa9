package enums

import "fmt"

// DriverStatus tracks a driver's availability on the roster.
type DriverStatus string

const (
	DriverStatusActive  DriverStatus = "active"
	DriverStatusOffline DriverStatus = "offline"
	DriverStatusBusy    DriverStatus = "busy"
	DriverStatusIdle    DriverStatus = "idle"
)

var validDriverStatuses = []DriverStatus{
	DriverStatusActive,
	DriverStatusOffline,
	DriverStatusBusy,
	DriverStatusIdle,
}

// String implements fmt.Stringer.
func (d DriverStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DriverStatus.
func (d DriverStatus) IsValid() bool {
	for _, candidate := range validDriverStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverStatus converts raw input into a DriverStatus.
func ParseDriverStatus(value string) (DriverStatus, error) {
	for _, candidate := range validDriverStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver status %q", value)
}
