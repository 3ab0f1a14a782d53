package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamline/iotcore/pkg/storage"
)

func submitTelemetry(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func Test_SubmitTelemetry_ShapeEquivalence(t *testing.T) {
	nested := `{"deviceId":"CONV-01","kind":"CONV","ts":"2026-03-01T10:00:00Z",
		"payload":{"vfd_temp":55.0,"torque":40.0,"battery":80.0}}`
	flat := `{"deviceId":"CONV-02","kind":"CONV","ts":"2026-03-01T10:00:00Z",
		"vfd_temp":55.0,"torque":40.0,"battery":80.0}`

	svc, store := newTestService()
	h := NewHandler(svc)

	for _, body := range []string{nested, flat} {
		rec := submitTelemetry(t, h, body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}

	// both shapes yield the same record and alert content
	for _, id := range []string{"CONV-01", "CONV-02"} {
		records, err := store.Telemetry().ListByDevice(id, nil, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, map[string]interface{}{
			"vfd_temp": 55.0, "torque": 40.0, "battery": 80.0,
		}, records[0].Payload)
		require.NotNil(t, records[0].Battery)
		assert.Equal(t, 80.0, *records[0].Battery)

		alerts, err := store.Alerts().List(storage.AlertFilter{DeviceID: id})
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, "VFD Overheating: 55°C", alerts[0].Message)
	}
}

func Test_SubmitTelemetry_Validation(t *testing.T) {
	cases := []struct {
		name          string
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:          "invalid JSON",
			body:          `{"deviceId": `,
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid JSON body",
		},
		{
			name:          "missing deviceId",
			body:          `{"kind":"BMC","temp":2.0}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "deviceId is required",
		},
		{
			name:          "unknown kind",
			body:          `{"deviceId":"X-01","kind":"XX","temp":2.0}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "kind is required (BMC|PAST|HOMO|CHILL|CIP|FLOW|TANK|VAC|VALVE|CONV)",
		},
	}

	svc, _ := newTestService()
	h := NewHandler(svc)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := submitTelemetry(t, h, tc.body)
			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.expectedError)
		})
	}
}

func Test_ExtractPayload(t *testing.T) {
	// nested payload wins even when siblings are present
	body := map[string]interface{}{
		"deviceId": "BMC-01",
		"kind":     "BMC",
		"ts":       "2026-03-01T10:00:00Z",
		"payload":  map[string]interface{}{"temp": 2.0},
		"stray":    true,
	}
	assert.Equal(t, map[string]interface{}{"temp": 2.0}, ExtractPayload(body))

	// flat shape strips only the envelope keys
	body = map[string]interface{}{
		"deviceId": "BMC-01",
		"kind":     "BMC",
		"ts":       "2026-03-01T10:00:00Z",
		"temp":     2.0,
		"battery":  90.0,
	}
	assert.Equal(t, map[string]interface{}{"temp": 2.0, "battery": 90.0}, ExtractPayload(body))

	// a non-object payload key falls back to the flat interpretation
	body = map[string]interface{}{
		"deviceId": "BMC-01",
		"kind":     "BMC",
		"payload":  "oops",
	}
	assert.Equal(t, map[string]interface{}{"payload": "oops"}, ExtractPayload(body))
}
