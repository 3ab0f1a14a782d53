package resource

import (
	"sort"

	"github.com/creamline/iotcore/pkg/model"
)

// UserResource never exposes the password hash.
type UserResource struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type UserListResource struct {
	Users []*UserResource `json:"users"`
}

func NewUser(m *model.User) (out *UserResource) {
	out = &UserResource{
		ID:    m.ID,
		Email: m.Email,
		Name:  m.Name,
		Role:  m.Role,
	}

	return // out
}

func NewUserList(ms []model.User) (out *UserListResource) {
	out = &UserListResource{
		Users: make([]*UserResource, 0, len(ms)),
	}

	for i := range ms {
		out.Users = append(out.Users, NewUser(&ms[i]))
	}

	// Default sort by ID
	sort.Slice(out.Users, func(i, j int) bool {
		return out.Users[i].ID < out.Users[j].ID
	})

	return // out
}
