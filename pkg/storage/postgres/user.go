package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

func newUserStore(db *sqlx.DB) *userStore {
	return &userStore{
		db: db,
	}
}

type userStore struct {
	db *sqlx.DB
}

type sqlDataUser struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (d *sqlDataUser) Scan(m *model.User) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Email = strings.ToLower(m.Email)
	d.Name = m.Name
	d.Role = m.Role
	d.PasswordHash = m.PasswordHash
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataUser) Model() (*model.User, error) {
	m := &model.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}

	return m, nil
}

func (s *userStore) Create(m *model.User) error {
	return createUser(s.db, m)
}

func (s *userStore) FindByEmail(email string) (*model.User, error) {
	return findUserByEmail(s.db, email)
}

func (s *userStore) FetchAll() ([]model.User, error) {
	return fetchAllUsers(s.db)
}

func createUser(db *sqlx.DB, m *model.User) error {
	d := sqlDataUser{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert user model to SQL data")
	}

	query := `INSERT INTO users (email, name, role, password_hash, created_at, updated_at)
		VALUES (:email, :name, :role, :password_hash, :created_at, :updated_at)
		RETURNING id`
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return storage.ErrDuplicate
		}
		return errors.Wrap(err, "failed to create user")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	m.Email = d.Email
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	return nil
}

func findUserByEmail(db *sqlx.DB, email string) (*model.User, error) {
	d := sqlDataUser{}
	query := "SELECT * FROM users WHERE email=$1"
	if err := db.Get(&d, query, strings.ToLower(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	return d.Model()
}

func fetchAllUsers(db *sqlx.DB) ([]model.User, error) {
	rows := make([]sqlDataUser, 0)
	models := make([]model.User, 0)

	query := "SELECT * FROM users ORDER BY id"
	if err := db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all users")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to user model")
		}
		models = append(models, *m)
	}

	return models, nil
}
