package storage

import (
	"time"

	"github.com/creamline/iotcore/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Devices() DeviceStore
	Telemetry() TelemetryStore
	Alerts() AlertStore
	Users() UserStore
	Ping() error
}

// DeviceFilter narrows List results. A nil Status matches every status.
type DeviceFilter struct {
	Status *model.DeviceStatus
	Limit  int
	Offset int
}

// DeviceStore is responsible for managing the Device model
type DeviceStore interface {
	List(f DeviceFilter) ([]model.Device, error)
	FindByID(id string) (*model.Device, error)
	Upsert(m *model.Device) error
	// MarkOffline transitions a single device to OFFLINE and stamps
	// lastOfflineAt.
	MarkOffline(id string, at time.Time) error
	// MarkOfflineStale transitions every ONLINE device whose lastSeenAt is
	// before cutoff and returns the number of affected rows.
	MarkOfflineStale(cutoff, at time.Time) (int64, error)
}

// TelemetryStore is responsible for managing the Telemetry model
type TelemetryStore interface {
	Create(m *model.Telemetry) error
	// ListByDevice returns up to limit records for a device, oldest first,
	// optionally restricted to timestamps at or after since.
	ListByDevice(deviceID string, since *time.Time, limit int) ([]model.Telemetry, error)
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	DeviceID string
	Limit    int
}

// AlertStore is responsible for managing the Alert model
type AlertStore interface {
	CreateBatch(ms []model.Alert) error
	// List returns alerts newest first.
	List(f AlertFilter) ([]model.Alert, error)
	Acknowledge(id int64) (*model.Alert, error)
}

// UserStore is responsible for managing the User model
type UserStore interface {
	Create(m *model.User) error
	FindByEmail(email string) (*model.User, error)
	FetchAll() ([]model.User, error)
}
