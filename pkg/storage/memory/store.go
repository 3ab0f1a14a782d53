package memory

import "github.com/creamline/iotcore/pkg/storage"

// store contains all memory-based sub-stores for managing the persistent models
type store struct {
	devices   *deviceStore
	telemetry *telemetryStore
	alerts    *alertStore
	users     *userStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		devices:   newDeviceStore(),
		telemetry: newTelemetryStore(),
		alerts:    newAlertStore(),
		users:     newUserStore(),
	}
}

// Devices returns a sub-store for managing the Device model
func (s *store) Devices() storage.DeviceStore {
	return s.devices
}

// Telemetry returns a sub-store for managing the Telemetry model
func (s *store) Telemetry() storage.TelemetryStore {
	return s.telemetry
}

// Alerts returns a sub-store for managing the Alert model
func (s *store) Alerts() storage.AlertStore {
	return s.alerts
}

// Users returns a sub-store for managing the User model
func (s *store) Users() storage.UserStore {
	return s.users
}

// Ping always succeeds for the memory store
func (s *store) Ping() error {
	return nil
}
