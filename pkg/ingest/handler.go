package ingest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"
)

// Handler contains all properties to serve the request/response ingestion
type Handler struct {
	svc *Service
}

// NewHandler create a new ingestion handler
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc: svc,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register ingest routes")
	api := e.Group("/ingest")
	api.POST("/telemetry", h.handleSubmitTelemetry)
}

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) handleSubmitTelemetry(c echo.Context) error {
	body := map[string]interface{}{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
	}

	deviceID, _ := body["deviceId"].(string)
	kind, _ := body["kind"].(string)
	ts, _ := body["ts"].(string)

	req := Request{
		DeviceID:  deviceID,
		Kind:      kind,
		Timestamp: ParseTimestamp(ts, time.Now().UTC()),
		Payload:   ExtractPayload(body),
	}

	if _, err := h.svc.Ingest(req); err != nil {
		if IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		log.Errorf("ingest failed for device '%s': %v", deviceID, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "ingest failed"})
	}

	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// ExtractPayload supports both submission shapes transparently: measurements
// nested under a payload key, or flat sibling fields next to the envelope.
func ExtractPayload(body map[string]interface{}) map[string]interface{} {
	if nested, ok := body["payload"].(map[string]interface{}); ok {
		return nested
	}

	flat := make(map[string]interface{})
	for k, v := range body {
		switch k {
		case "deviceId", "kind", "ts":
			continue
		}
		flat[k] = v
	}
	return flat
}
