package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/creamline/iotcore/pkg/storage"
)

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	db        *sqlx.DB
	devices   *deviceStore
	telemetry *telemetryStore
	alerts    *alertStore
	users     *userStore
}

// NewStore creates a new PostgreSQL based Storage interface
func NewStore(db *sqlx.DB) storage.Interface {
	return &store{
		db:        db,
		devices:   newDeviceStore(db),
		telemetry: newTelemetryStore(db),
		alerts:    newAlertStore(db),
		users:     newUserStore(db),
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

// Ping checks the database connection
func (s *store) Ping() error {
	return s.db.Ping()
}
