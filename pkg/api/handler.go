package api

import (
	"net/http"

	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/creamline/iotcore/pkg/auth"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

// Handler contains all properties to serve the API
type Handler struct {
	store     storage.Interface
	jwtSecret string
}

// NewHandler create a new API handler
func NewHandler(store storage.Interface, jwtSecret string) *Handler {
	return &Handler{
		store:     store,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.GET("/health", h.handleHealth)

	api.POST("/auth/signup", h.handleSignup)
	api.POST("/auth/login", h.handleLogin)

	guarded := api.Group("", auth.Middleware(h.jwtSecret))
	guarded.GET("/devices", h.handleFetchDevices)
	guarded.GET("/devices/:id", h.handleGetDeviceByID)
	guarded.GET("/devices/:id/telemetry", h.handleFetchDeviceTelemetry)

	guarded.GET("/alerts", h.handleFetchAlerts)
	guarded.POST("/alerts/:id/ack", h.handleAcknowledgeAlert)

	guarded.GET("/users", h.handleFetchUsers, auth.RequireRole(model.RoleAdmin))
}

func (h *Handler) handleHealth(c echo.Context) error {
	if err := h.store.Ping(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}
