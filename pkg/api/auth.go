package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo"
	"golang.org/x/crypto/bcrypt"

	"github.com/creamline/iotcore/pkg/api/resource"
	"github.com/creamline/iotcore/pkg/auth"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	Token string                 `json:"token"`
	User  *resource.UserResource `json:"user"`
}

func (h *Handler) handleSignup(c echo.Context) error {
	r := &signupRequest{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorMessage("invalid JSON body"))
	}

	if r.Email == "" || r.Password == "" || r.Name == "" {
		return c.JSON(http.StatusBadRequest, errorMessage("email, password, name are required"))
	}
	if len(r.Password) < 6 {
		return c.JSON(http.StatusBadRequest, errorMessage("Password must be at least 6 characters"))
	}
	role := strings.ToLower(r.Role)
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, errorMessage("Invalid role. Allowed roles: admin, operator, base"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	m := &model.User{
		Email:        r.Email,
		Name:         r.Name,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := h.store.Users().Create(m); err != nil {
		if err == storage.ErrDuplicate {
			return c.JSON(http.StatusConflict, errorMessage("Email already exists"))
		}
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	token, err := auth.SignToken(m, h.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token, User: resource.NewUser(m)})
}

func (h *Handler) handleLogin(c echo.Context) error {
	r := &loginRequest{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorMessage("invalid JSON body"))
	}

	if r.Email == "" || r.Password == "" || r.Role == "" {
		return c.JSON(http.StatusBadRequest, errorMessage("email, password, and role are required"))
	}
	role := strings.ToLower(r.Role)
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, errorMessage("Invalid role. Allowed roles: admin, operator, base"))
	}

	m, err := h.store.Users().FindByEmail(r.Email)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusUnauthorized, errorMessage("Invalid email or password"))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(r.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, errorMessage("Invalid email or password"))
	}

	// Logins are role-specific: a valid password with the wrong role is
	// still rejected.
	if role != m.Role {
		return c.JSON(http.StatusUnauthorized, errorMessage("Role mismatch for this account"))
	}

	token, err := auth.SignToken(m, h.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token, User: resource.NewUser(m)})
}

func (h *Handler) handleFetchUsers(c echo.Context) error {
	ms, err := h.store.Users().FetchAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewUserList(ms))
}
