package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"

	"github.com/creamline/iotcore/pkg/api/resource"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

func (h *Handler) handleFetchAlerts(c echo.Context) error {
	f := storage.AlertFilter{
		DeviceID: c.QueryParam("deviceId"),
		Limit:    100,
	}

	ms, err := h.store.Alerts().List(f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	// Alerts are joined with their device's current kind and status for the
	// dashboard. A missing device row degrades to empty fields.
	devices := make(map[string]*model.Device)
	for _, m := range ms {
		if _, ok := devices[m.DeviceID]; ok {
			continue
		}
		d, err := h.store.Devices().FindByID(m.DeviceID)
		if err != nil {
			devices[m.DeviceID] = nil
			continue
		}
		devices[m.DeviceID] = d
	}

	return c.JSON(http.StatusOK, resource.NewAlertList(ms, devices))
}

func (h *Handler) handleAcknowledgeAlert(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorMessage("Invalid alert id"))
	}

	m, err := h.store.Alerts().Acknowledge(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, errorMessage("Alert not found"))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewAlert(m, nil))
}
