// Package events fans ingestion facts out to NATS. Publishing is strictly
// best effort: a nil connection or a publish failure never blocks or fails
// an ingest.
package events

import (
	"encoding/json"
	"time"

	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/creamline/iotcore/pkg/model"
)

const (
	subjectDeviceStatus = "iotcore.telemetry.v1.events.devicestatus"
	subjectAlerts       = "iotcore.telemetry.v1.events.alerts"
)

type Publisher struct {
	nc *nats.Conn
}

// NewPublisher wraps a NATS connection. A nil conn yields a publisher that
// silently drops everything, so callers never need to branch on messaging
// being configured.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

type deviceStatusEvent struct {
	DeviceID   string             `json:"device_id"`
	Kind       string             `json:"kind,omitempty"`
	Status     model.DeviceStatus `json:"status"`
	LastSeenAt time.Time          `json:"last_seen_at"`
	Timestamp  time.Time          `json:"timestamp"`
}

type alertEvent struct {
	DeviceID  string          `json:"device_id"`
	Type      model.AlertType `json:"type"`
	Message   string          `json:"message"`
	Value     float64         `json:"value"`
	Threshold float64         `json:"threshold"`
	Timestamp time.Time       `json:"timestamp"`
}

// DeviceStatus publishes a presence transition.
func (p *Publisher) DeviceStatus(deviceID, kind string, status model.DeviceStatus, lastSeenAt time.Time) {
	p.publish(subjectDeviceStatus, &deviceStatusEvent{
		DeviceID:   deviceID,
		Kind:       kind,
		Status:     status,
		LastSeenAt: lastSeenAt,
		Timestamp:  time.Now().Round(time.Second).UTC(),
	})
}

// AlertsFired publishes one event per fired alert.
func (p *Publisher) AlertsFired(alerts []model.Alert) {
	for _, a := range alerts {
		p.publish(subjectAlerts, &alertEvent{
			DeviceID:  a.DeviceID,
			Type:      a.Type,
			Message:   a.Message,
			Value:     a.Value,
			Threshold: a.Threshold,
			Timestamp: a.CreatedAt,
		})
	}
}

func (p *Publisher) publish(subject string, v interface{}) {
	if p == nil || p.nc == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("events failed to marshal %s event: %v", subject, err)
		return
	}

	if err := p.nc.Publish(subject, data); err != nil {
		log.Errorf("events failed to publish %s event: %v", subject, err)
	}
}
