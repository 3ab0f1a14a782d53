// Package registry owns the per-device presence state machine. Devices are
// registered implicitly: the first Touch for an unseen id creates the row.
package registry

import (
	"time"

	"github.com/creamline/iotcore/pkg/events"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

type Registry struct {
	store  storage.Interface
	events *events.Publisher
}

func New(store storage.Interface, pub *events.Publisher) *Registry {
	return &Registry{
		store:  store,
		events: pub,
	}
}

// Touch upserts a device: created on first sight, otherwise the reported
// kind overwrites the stored one, status is forced to ONLINE and lastSeenAt
// refreshed. Touch never fails with a domain error; only a storage failure
// propagates, unmodified.
func (r *Registry) Touch(deviceID, kind string) (*model.Device, error) {
	now := time.Now().Round(time.Second).UTC()

	m := &model.Device{
		ID:         deviceID,
		Kind:       kind,
		Status:     model.StatusOnline,
		LastSeenAt: now,
	}
	if err := r.store.Devices().Upsert(m); err != nil {
		return nil, err
	}

	r.events.DeviceStatus(deviceID, kind, model.StatusOnline, now)

	return m, nil
}

// MarkOffline transitions a single device to OFFLINE and stamps
// lastOfflineAt. Only the staleness sweeper calls this; a disconnecting
// session does not.
func (r *Registry) MarkOffline(deviceID string) error {
	now := time.Now().Round(time.Second).UTC()

	if err := r.store.Devices().MarkOffline(deviceID, now); err != nil {
		return err
	}

	r.events.DeviceStatus(deviceID, "", model.StatusOffline, now)

	return nil
}
