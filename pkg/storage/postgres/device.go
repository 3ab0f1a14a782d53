package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

func newDeviceStore(db *sqlx.DB) *deviceStore {
	return &deviceStore{
		db: db,
	}
}

type deviceStore struct {
	db *sqlx.DB
}

type sqlDataDevice struct {
	ID            string     `db:"id"`
	Kind          string     `db:"kind"`
	Status        string     `db:"status"`
	LastSeenAt    time.Time  `db:"last_seen_at"`
	LastOfflineAt *time.Time `db:"last_offline_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (d *sqlDataDevice) Scan(m *model.Device) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Kind = m.Kind
	d.Status = string(m.Status)
	d.LastSeenAt = m.LastSeenAt
	d.LastOfflineAt = m.LastOfflineAt
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataDevice) Model() (*model.Device, error) {
	m := &model.Device{
		ID:            d.ID,
		Kind:          d.Kind,
		Status:        model.DeviceStatus(d.Status),
		LastSeenAt:    d.LastSeenAt,
		LastOfflineAt: d.LastOfflineAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}

	return m, nil
}

func (s *deviceStore) List(f storage.DeviceFilter) ([]model.Device, error) {
	return listDevices(s.db, f)
}

func (s *deviceStore) FindByID(id string) (*model.Device, error) {
	return findDeviceByID(s.db, id)
}

func (s *deviceStore) Upsert(m *model.Device) error {
	return upsertDevice(s.db, m)
}

func (s *deviceStore) MarkOffline(id string, at time.Time) error {
	return markDeviceOffline(s.db, id, at)
}

func (s *deviceStore) MarkOfflineStale(cutoff, at time.Time) (int64, error) {
	return markDevicesOfflineStale(s.db, cutoff, at)
}

func listDevices(db *sqlx.DB, f storage.DeviceFilter) ([]model.Device, error) {
	rows := make([]sqlDataDevice, 0)
	models := make([]model.Device, 0)

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT * FROM devices ORDER BY status ASC, last_seen_at DESC LIMIT $1 OFFSET $2"
	args := []interface{}{limit, f.Offset}
	if f.Status != nil {
		query = "SELECT * FROM devices WHERE status=$3 ORDER BY status ASC, last_seen_at DESC LIMIT $1 OFFSET $2"
		args = append(args, string(*f.Status))
	}

	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to device model")
		}
		models = append(models, *m)
	}

	return models, nil
}

func findDeviceByID(db *sqlx.DB, id string) (*model.Device, error) {
	d := sqlDataDevice{}
	query := "SELECT * FROM devices WHERE id=$1"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find device")
	}

	return d.Model()
}

func upsertDevice(db *sqlx.DB, m *model.Device) error {
	d := sqlDataDevice{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert device model to SQL data")
	}

	query := `INSERT INTO devices (id, kind, status, last_seen_at, last_offline_at, created_at, updated_at)
		VALUES (:id, :kind, :status, :last_seen_at, :last_offline_at, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET kind=:kind, status=:status, last_seen_at=:last_seen_at, updated_at=:updated_at`
	if _, err := db.NamedExec(query, d); err != nil {
		return errors.Wrap(err, "failed to upsert device")
	}

	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	return nil
}

func markDeviceOffline(db *sqlx.DB, id string, at time.Time) error {
	query := "UPDATE devices SET status=$2, last_offline_at=$3, updated_at=$3 WHERE id=$1"
	res, err := db.Exec(query, id, string(model.StatusOffline), at)
	if err != nil {
		return errors.Wrap(err, "failed to mark device offline")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func markDevicesOfflineStale(db *sqlx.DB, cutoff, at time.Time) (int64, error) {
	query := "UPDATE devices SET status=$3, last_offline_at=$2, updated_at=$2 WHERE status=$4 AND last_seen_at < $1"
	res, err := db.Exec(query, cutoff, at, string(model.StatusOffline), string(model.StatusOnline))
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark stale devices offline")
	}

	return res.RowsAffected()
}
