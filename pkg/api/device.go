package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"

	"github.com/creamline/iotcore/pkg/api/resource"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

const (
	maxDeviceLimit    = 500
	maxTelemetryLimit = 2000
)

func (h *Handler) handleFetchDevices(c echo.Context) error {
	f := storage.DeviceFilter{Limit: 100}

	if s := c.QueryParam("status"); s != "" {
		status := model.DeviceStatus(s)
		switch status {
		case model.StatusOnline, model.StatusOffline, model.StatusUnknown:
			f.Status = &status
		}
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		f.Limit = v
		if f.Limit > maxDeviceLimit {
			f.Limit = maxDeviceLimit
		}
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		f.Offset = v
	}

	ms, err := h.store.Devices().List(f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewDeviceList(ms))
}

func (h *Handler) handleGetDeviceByID(c echo.Context) error {
	m, err := h.store.Devices().FindByID(c.Param("id"))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, errorMessage("Device not found"))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewDevice(m))
}

func (h *Handler) handleFetchDeviceTelemetry(c echo.Context) error {
	limit := 200
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxTelemetryLimit {
			limit = maxTelemetryLimit
		}
	}

	var since *time.Time
	if s := c.QueryParam("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid since"))
		}
		since = &t
	}

	ms, err := h.store.Telemetry().ListByDevice(c.Param("id"), since, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewTelemetryList(ms))
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func errorMessage(msg string) map[string]string {
	return map[string]string{"error": msg}
}
