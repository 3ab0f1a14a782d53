package memory

import (
	"sync"
	"time"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

type alertStore struct {
	store  []model.Alert
	nextID int64
	sync.RWMutex
}

func newAlertStore() *alertStore {
	return &alertStore{
		store:  make([]model.Alert, 0),
		nextID: 1,
	}
}

func (s *alertStore) CreateBatch(ms []model.Alert) error {
	s.Lock()
	defer s.Unlock()

	now := time.Now().Round(time.Second).UTC()
	for i := range ms {
		ms[i].ID = s.getNextID()
		if ms[i].CreatedAt.IsZero() {
			ms[i].CreatedAt = now
		}
		s.store = append(s.store, ms[i])
	}

	return nil
}

func (s *alertStore) List(f storage.AlertFilter) ([]model.Alert, error) {
	s.RLock()
	defer s.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	// Insertion order is creation order, so walk backwards for newest first.
	models := make([]model.Alert, 0)
	for i := len(s.store) - 1; i >= 0 && len(models) < limit; i-- {
		if f.DeviceID != "" && s.store[i].DeviceID != f.DeviceID {
			continue
		}
		models = append(models, s.store[i])
	}

	return models, nil
}

func (s *alertStore) Acknowledge(id int64) (*model.Alert, error) {
	s.Lock()
	defer s.Unlock()

	for i := range s.store {
		if s.store[i].ID == id {
			s.store[i].Acknowledged = true
			m := s.store[i]
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *alertStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}
