package model

import "time"

// Telemetry is an immutable ingest fact. The raw payload is kept verbatim
// next to the four canonical channels extracted at ingest time.
type Telemetry struct {
	ID        int64
	DeviceID  string
	Timestamp time.Time
	Payload   map[string]interface{}

	Temperature *float64
	Humidity    *float64
	Pressure    *float64
	Battery     *float64

	CreatedAt time.Time
}
