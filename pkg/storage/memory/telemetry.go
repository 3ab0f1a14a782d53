package memory

import (
	"sync"
	"time"

	"github.com/creamline/iotcore/pkg/model"
)

type telemetryStore struct {
	store  []model.Telemetry
	nextID int64
	sync.RWMutex
}

func newTelemetryStore() *telemetryStore {
	return &telemetryStore{
		store:  make([]model.Telemetry, 0),
		nextID: 1,
	}
}

func (s *telemetryStore) Create(m *model.Telemetry) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().Round(time.Second).UTC()
	}

	s.store = append(s.store, *m)

	return nil
}

func (s *telemetryStore) ListByDevice(deviceID string, since *time.Time, limit int) ([]model.Telemetry, error) {
	s.RLock()
	defer s.RUnlock()

	if limit <= 0 {
		limit = 200
	}

	matches := make([]model.Telemetry, 0)
	for _, m := range s.store {
		if m.DeviceID != deviceID {
			continue
		}
		if since != nil && m.Timestamp.Before(*since) {
			continue
		}
		matches = append(matches, m)
	}

	// Keep only the newest window, returned oldest first.
	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

func (s *telemetryStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}
