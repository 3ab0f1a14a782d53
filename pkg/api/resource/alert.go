package resource

import (
	"time"

	"github.com/creamline/iotcore/pkg/model"
)

type AlertResource struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	DeviceID     string    `json:"deviceId"`
	Kind         string    `json:"kind,omitempty"`
	Status       string    `json:"status,omitempty"`
	TS           time.Time `json:"ts"`
	Value        float64   `json:"value"`
	Message      string    `json:"message"`
	Threshold    float64   `json:"threshold"`
	Acknowledged bool      `json:"acknowledged"`
}

type AlertListResource struct {
	Alerts []*AlertResource `json:"alerts"`
}

// NewAlert renders one alert, joined with its device when available.
func NewAlert(m *model.Alert, device *model.Device) (out *AlertResource) {
	out = &AlertResource{
		ID:           m.ID,
		Type:         string(m.Type),
		DeviceID:     m.DeviceID,
		TS:           m.CreatedAt,
		Value:        m.Value,
		Message:      m.Message,
		Threshold:    m.Threshold,
		Acknowledged: m.Acknowledged,
	}

	if device != nil {
		out.Kind = device.Kind
		out.Status = string(device.Status)
	}

	return // out
}

func NewAlertList(ms []model.Alert, devices map[string]*model.Device) (out *AlertListResource) {
	out = &AlertListResource{
		Alerts: make([]*AlertResource, 0, len(ms)),
	}

	for i := range ms {
		out.Alerts = append(out.Alerts, NewAlert(&ms[i], devices[ms[i].DeviceID]))
	}

	return // out
}
