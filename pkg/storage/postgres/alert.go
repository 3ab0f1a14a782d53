package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

func newAlertStore(db *sqlx.DB) *alertStore {
	return &alertStore{
		db: db,
	}
}

type alertStore struct {
	db *sqlx.DB
}

type sqlDataAlert struct {
	ID           int64     `db:"id"`
	DeviceID     string    `db:"device_id"`
	Type         string    `db:"type"`
	Message      string    `db:"message"`
	Value        float64   `db:"value"`
	Threshold    float64   `db:"threshold"`
	Acknowledged bool      `db:"acknowledged"`
	CreatedAt    time.Time `db:"created_at"`
}

func (d *sqlDataAlert) Scan(m *model.Alert) error {
	createdAt := m.CreatedAt
	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.DeviceID = m.DeviceID
	d.Type = string(m.Type)
	d.Message = m.Message
	d.Value = m.Value
	d.Threshold = m.Threshold
	d.Acknowledged = m.Acknowledged
	d.CreatedAt = createdAt

	return nil
}

func (d *sqlDataAlert) Model() (*model.Alert, error) {
	m := &model.Alert{
		ID:           d.ID,
		DeviceID:     d.DeviceID,
		Type:         model.AlertType(d.Type),
		Message:      d.Message,
		Value:        d.Value,
		Threshold:    d.Threshold,
		Acknowledged: d.Acknowledged,
		CreatedAt:    d.CreatedAt,
	}

	return m, nil
}

func (s *alertStore) CreateBatch(ms []model.Alert) error {
	return createAlertBatch(s.db, ms)
}

func (s *alertStore) List(f storage.AlertFilter) ([]model.Alert, error) {
	return listAlerts(s.db, f)
}

func (s *alertStore) Acknowledge(id int64) (*model.Alert, error) {
	return acknowledgeAlert(s.db, id)
}

func createAlertBatch(db *sqlx.DB, ms []model.Alert) error {
	if len(ms) == 0 {
		return nil
	}

	rows := make([]sqlDataAlert, 0, len(ms))
	for i := range ms {
		d := sqlDataAlert{}
		if err := d.Scan(&ms[i]); err != nil {
			return errors.Wrap(err, "failed to convert alert model to SQL data")
		}
		ms[i].CreatedAt = d.CreatedAt
		rows = append(rows, d)
	}

	query := `INSERT INTO alerts (device_id, type, message, value, threshold, acknowledged, created_at)
		VALUES (:device_id, :type, :message, :value, :threshold, :acknowledged, :created_at)`
	if _, err := db.NamedExec(query, rows); err != nil {
		return errors.Wrap(err, "failed to create alerts")
	}

	return nil
}

func listAlerts(db *sqlx.DB, f storage.AlertFilter) ([]model.Alert, error) {
	rows := make([]sqlDataAlert, 0)
	models := make([]model.Alert, 0)

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT * FROM alerts ORDER BY created_at DESC LIMIT $1"
	args := []interface{}{limit}
	if f.DeviceID != "" {
		query = "SELECT * FROM alerts WHERE device_id=$2 ORDER BY created_at DESC LIMIT $1"
		args = append(args, f.DeviceID)
	}

	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list alerts")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to alert model")
		}
		models = append(models, *m)
	}

	return models, nil
}

func acknowledgeAlert(db *sqlx.DB, id int64) (*model.Alert, error) {
	d := sqlDataAlert{}
	query := "UPDATE alerts SET acknowledged=TRUE WHERE id=$1 RETURNING *"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to acknowledge alert")
	}

	return d.Model()
}
