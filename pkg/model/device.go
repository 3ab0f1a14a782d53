package model

import "time"

// DeviceStatus is the presence state of a device in the registry.
type DeviceStatus string

const (
	// StatusUnknown is the initial state of a never-observed device.
	StatusUnknown DeviceStatus = "UNKNOWN"
	// StatusOnline is forced on every ingest.
	StatusOnline DeviceStatus = "ONLINE"
	// StatusOffline is set only by the staleness sweeper.
	StatusOffline DeviceStatus = "OFFLINE"
)

// DeviceKinds enumerates the ten equipment categories of the processing
// line: bulk milk cooler, pasteurizer, homogenizer, chiller, CIP wash,
// flow meter, storage tank, vacuum pump, control valve and conveyor.
var DeviceKinds = []string{
	"BMC", "PAST", "HOMO", "CHILL", "CIP", "FLOW", "TANK", "VAC", "VALVE", "CONV",
}

// ValidKind reports whether code is one of the fixed kind codes.
func ValidKind(code string) bool {
	for _, k := range DeviceKinds {
		if k == code {
			return true
		}
	}
	return false
}

// Device is a model of the persistency layer. The ID is assigned by the
// device itself and registered implicitly on first ingest.
type Device struct {
	ID            string
	Kind          string
	Status        DeviceStatus
	LastSeenAt    time.Time
	LastOfflineAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
