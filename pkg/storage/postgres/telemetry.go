package postgres

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/creamline/iotcore/pkg/model"
)

func newTelemetryStore(db *sqlx.DB) *telemetryStore {
	return &telemetryStore{
		db: db,
	}
}

type telemetryStore struct {
	db *sqlx.DB
}

type sqlDataTelemetry struct {
	ID          int64     `db:"id"`
	DeviceID    string    `db:"device_id"`
	Timestamp   time.Time `db:"ts"`
	Payload     []byte    `db:"payload"`
	Temperature *float64  `db:"temperature"`
	Humidity    *float64  `db:"humidity"`
	Pressure    *float64  `db:"pressure"`
	Battery     *float64  `db:"battery"`
	CreatedAt   time.Time `db:"created_at"`
}

func (d *sqlDataTelemetry) Scan(m *model.Telemetry) error {
	createdAt := m.CreatedAt
	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}

	d.ID = m.ID
	d.DeviceID = m.DeviceID
	d.Timestamp = m.Timestamp
	d.Payload = payload
	d.Temperature = m.Temperature
	d.Humidity = m.Humidity
	d.Pressure = m.Pressure
	d.Battery = m.Battery
	d.CreatedAt = createdAt

	return nil
}

func (d *sqlDataTelemetry) Model() (*model.Telemetry, error) {
	var payload map[string]interface{}
	if len(d.Payload) > 0 {
		if err := json.Unmarshal(d.Payload, &payload); err != nil {
			return nil, err
		}
	}

	m := &model.Telemetry{
		ID:          d.ID,
		DeviceID:    d.DeviceID,
		Timestamp:   d.Timestamp,
		Payload:     payload,
		Temperature: d.Temperature,
		Humidity:    d.Humidity,
		Pressure:    d.Pressure,
		Battery:     d.Battery,
		CreatedAt:   d.CreatedAt,
	}

	return m, nil
}

func (s *telemetryStore) Create(m *model.Telemetry) error {
	return createTelemetry(s.db, m)
}

func (s *telemetryStore) ListByDevice(deviceID string, since *time.Time, limit int) ([]model.Telemetry, error) {
	return listTelemetryByDevice(s.db, deviceID, since, limit)
}

func createTelemetry(db *sqlx.DB, m *model.Telemetry) error {
	d := sqlDataTelemetry{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert telemetry model to SQL data")
	}

	query := `INSERT INTO telemetry (device_id, ts, payload, temperature, humidity, pressure, battery, created_at)
		VALUES (:device_id, :ts, :payload, :temperature, :humidity, :pressure, :battery, :created_at)
		RETURNING id`
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create telemetry")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func listTelemetryByDevice(db *sqlx.DB, deviceID string, since *time.Time, limit int) ([]model.Telemetry, error) {
	rows := make([]sqlDataTelemetry, 0)
	models := make([]model.Telemetry, 0)

	if limit <= 0 {
		limit = 200
	}

	// Fetch the newest window, then return it oldest first.
	query := "SELECT * FROM telemetry WHERE device_id=$1 ORDER BY ts DESC LIMIT $2"
	args := []interface{}{deviceID, limit}
	if since != nil {
		query = "SELECT * FROM telemetry WHERE device_id=$1 AND ts >= $3 ORDER BY ts DESC LIMIT $2"
		args = append(args, *since)
	}

	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list telemetry")
	}

	for i := len(rows) - 1; i >= 0; i-- {
		m, err := rows[i].Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to telemetry model")
		}
		models = append(models, *m)
	}

	return models, nil
}
