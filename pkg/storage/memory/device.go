package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

type deviceStore struct {
	store map[string]model.Device
	sync.RWMutex
}

func newDeviceStore() *deviceStore {
	return &deviceStore{
		store: make(map[string]model.Device),
	}
}

func (s *deviceStore) List(f storage.DeviceFilter) ([]model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Device, 0, len(s.store))
	for _, m := range s.store {
		if f.Status != nil && m.Status != *f.Status {
			continue
		}
		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool {
		if models[i].Status != models[j].Status {
			return models[i].Status < models[j].Status
		}
		return models[i].LastSeenAt.After(models[j].LastSeenAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if f.Offset >= len(models) {
		return []model.Device{}, nil
	}
	models = models[f.Offset:]
	if len(models) > limit {
		models = models[:limit]
	}

	return models, nil
}

func (s *deviceStore) FindByID(id string) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *deviceStore) Upsert(m *model.Device) error {
	s.Lock()
	defer s.Unlock()

	now := time.Now().Round(time.Second).UTC()
	if existing, ok := s.store[m.ID]; ok {
		m.CreatedAt = existing.CreatedAt
		m.LastOfflineAt = existing.LastOfflineAt
	} else {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	s.store[m.ID] = *m

	return nil
}

func (s *deviceStore) MarkOffline(id string, at time.Time) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.Status = model.StatusOffline
	offlineAt := at
	m.LastOfflineAt = &offlineAt
	m.UpdatedAt = at
	s.store[id] = m

	return nil
}

func (s *deviceStore) MarkOfflineStale(cutoff, at time.Time) (int64, error) {
	s.Lock()
	defer s.Unlock()

	var n int64
	for id, m := range s.store {
		if m.Status != model.StatusOnline || !m.LastSeenAt.Before(cutoff) {
			continue
		}
		m.Status = model.StatusOffline
		offlineAt := at
		m.LastOfflineAt = &offlineAt
		m.UpdatedAt = at
		s.store[id] = m
		n++
	}

	return n, nil
}
