package resource

import (
	"time"

	"github.com/creamline/iotcore/pkg/model"
)

type TelemetryResource struct {
	ID          int64                  `json:"id"`
	TS          time.Time              `json:"ts"`
	Payload     map[string]interface{} `json:"payload"`
	Temperature *float64               `json:"temperature"`
	Humidity    *float64               `json:"humidity"`
	Pressure    *float64               `json:"pressure"`
	Battery     *float64               `json:"battery"`
}

type TelemetryListResource struct {
	Telemetry []*TelemetryResource `json:"telemetry"`
}

func NewTelemetry(m *model.Telemetry) (out *TelemetryResource) {
	out = &TelemetryResource{
		ID:          m.ID,
		TS:          m.Timestamp,
		Payload:     m.Payload,
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Pressure:    m.Pressure,
		Battery:     m.Battery,
	}

	return // out
}

func NewTelemetryList(ms []model.Telemetry) (out *TelemetryListResource) {
	out = &TelemetryListResource{
		Telemetry: make([]*TelemetryResource, 0, len(ms)),
	}

	for i := range ms {
		out.Telemetry = append(out.Telemetry, NewTelemetry(&ms[i]))
	}

	return // out
}
