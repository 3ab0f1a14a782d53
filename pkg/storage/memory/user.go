package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

type userStore struct {
	store  map[int64]model.User
	nextID int64
	sync.RWMutex
}

func newUserStore() *userStore {
	return &userStore{
		store:  make(map[int64]model.User),
		nextID: 1,
	}
}

func (s *userStore) Create(m *model.User) error {
	s.Lock()
	defer s.Unlock()

	m.Email = strings.ToLower(m.Email)
	for _, u := range s.store {
		if u.Email == m.Email {
			return storage.ErrDuplicate
		}
	}

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	s.store[m.ID] = *m

	return nil
}

func (s *userStore) FindByEmail(email string) (*model.User, error) {
	s.RLock()
	defer s.RUnlock()

	email = strings.ToLower(email)
	for _, m := range s.store {
		if m.Email == email {
			u := m
			return &u, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *userStore) FetchAll() ([]model.User, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.User, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}

	return models, nil
}

func (s *userStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}
