package model

import "time"

// AlertType tags the rule that produced an alert.
type AlertType string

const (
	AlertTemperature AlertType = "TEMPERATURE"
	AlertPressure    AlertType = "PRESSURE"
	AlertBattery     AlertType = "BATTERY"
	AlertVFDTemp     AlertType = "VFD_TEMP"
	AlertTorque      AlertType = "TORQUE"
)

// Alert is one threshold breach. Repeated breaches produce repeated rows;
// there is no deduplication and the core never acknowledges.
type Alert struct {
	ID           int64
	DeviceID     string
	Type         AlertType
	Message      string
	Value        float64
	Threshold    float64
	Acknowledged bool

	CreatedAt time.Time
}
