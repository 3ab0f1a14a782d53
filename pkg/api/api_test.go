package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamline/iotcore/pkg/auth"
	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
	"github.com/creamline/iotcore/pkg/storage/memory"
)

const testSecret = "test-secret"

func newTestAPI() (*echo.Echo, storage.Interface) {
	e := echo.New()
	store := memory.NewStore()
	NewHandler(store, testSecret).RegisterRoutes(e)
	return e, store
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signupUser(t *testing.T, e *echo.Echo, email, role string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"secret1","name":"Test User","role":"` + role + `"}`
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := struct {
		Token string `json:"token"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func Test_Health(t *testing.T) {
	e, _ := newTestAPI()
	rec := doJSON(e, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func Test_SignupAndLogin(t *testing.T) {
	e, _ := newTestAPI()

	signupUser(t, e, "ops@creamline.test", "operator")

	// duplicate email is rejected
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"ops@creamline.test","password":"secret1","name":"Other","role":"operator"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already exists")

	// login with matching role succeeds
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ops@creamline.test","password":"secret1","role":"operator"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	// valid password but wrong role is rejected
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ops@creamline.test","password":"secret1","role":"admin"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Role mismatch for this account")

	// wrong password
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ops@creamline.test","password":"wrong1","role":"operator"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func Test_Signup_Validation(t *testing.T) {
	cases := []struct {
		name          string
		body          string
		expectedError string
	}{
		{"missing fields", `{"email":"a@b.c"}`, "email, password, name are required"},
		{"short password", `{"email":"a@b.c","password":"abc","name":"A","role":"base"}`, "Password must be at least 6 characters"},
		{"bad role", `{"email":"a@b.c","password":"secret1","name":"A","role":"root"}`, "Invalid role. Allowed roles: admin, operator, base"},
	}

	e, _ := newTestAPI()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.expectedError)
		})
	}
}

func Test_GuardedRoutesRequireToken(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodGet, "/api/v1/devices", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/devices", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_FetchDevices(t *testing.T) {
	e, store := newTestAPI()
	token := signupUser(t, e, "viewer@creamline.test", "base")

	now := time.Now().Round(time.Second).UTC()
	require.NoError(t, store.Devices().Upsert(&model.Device{
		ID: "BMC-01", Kind: "BMC", Status: model.StatusOnline, LastSeenAt: now,
	}))
	require.NoError(t, store.Devices().Upsert(&model.Device{
		ID: "PAST-01", Kind: "PAST", Status: model.StatusOffline, LastSeenAt: now.Add(-time.Hour),
	}))

	rec := doJSON(e, http.MethodGet, "/api/v1/devices", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	res := struct {
		Devices []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"devices"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Devices, 2)

	// status filter narrows the list
	rec = doJSON(e, http.MethodGet, "/api/v1/devices?status=OFFLINE", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Devices, 1)
	assert.Equal(t, "PAST-01", res.Devices[0].ID)

	// unknown id
	rec = doJSON(e, http.MethodGet, "/api/v1/devices/NOPE-01", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_FetchDeviceTelemetry(t *testing.T) {
	e, store := newTestAPI()
	token := signupUser(t, e, "viewer2@creamline.test", "base")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Telemetry().Create(&model.Telemetry{
			DeviceID:  "TANK-01",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Payload:   map[string]interface{}{"level": 50.0 + float64(i)},
		}))
	}

	rec := doJSON(e, http.MethodGet,
		"/api/v1/devices/TANK-01/telemetry?since=2026-03-01T10:01:00Z", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	res := struct {
		Telemetry []struct {
			DeviceID string `json:"deviceId"`
		} `json:"telemetry"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Telemetry, 2)

	rec = doJSON(e, http.MethodGet, "/api/v1/devices/TANK-01/telemetry?since=not-a-time", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid since")
}

func Test_AlertsListAndAcknowledge(t *testing.T) {
	e, store := newTestAPI()
	token := signupUser(t, e, "viewer3@creamline.test", "operator")

	now := time.Now().Round(time.Second).UTC()
	require.NoError(t, store.Devices().Upsert(&model.Device{
		ID: "CONV-01", Kind: "CONV", Status: model.StatusOnline, LastSeenAt: now,
	}))
	require.NoError(t, store.Alerts().CreateBatch([]model.Alert{{
		DeviceID:  "CONV-01",
		Type:      model.AlertTorque,
		Message:   "High Torque detected: 70 Nm",
		Value:     70,
		Threshold: 60,
	}}))

	rec := doJSON(e, http.MethodGet, "/api/v1/alerts", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	res := struct {
		Alerts []struct {
			ID           int64  `json:"id"`
			Kind         string `json:"kind"`
			Acknowledged bool   `json:"acknowledged"`
		} `json:"alerts"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "CONV", res.Alerts[0].Kind)
	assert.False(t, res.Alerts[0].Acknowledged)

	rec = doJSON(e, http.MethodPost, "/api/v1/alerts/1/ack", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"acknowledged":true`)

	rec = doJSON(e, http.MethodPost, "/api/v1/alerts/999/ack", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_UsersEndpointAdminOnly(t *testing.T) {
	e, _ := newTestAPI()

	baseToken := signupUser(t, e, "base@creamline.test", "base")
	rec := doJSON(e, http.MethodGet, "/api/v1/users", "", baseToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := signupUser(t, e, "admin@creamline.test", "admin")
	rec = doJSON(e, http.MethodGet, "/api/v1/users", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin@creamline.test")
	assert.NotContains(t, rec.Body.String(), "password")
}

func Test_TokenClaims(t *testing.T) {
	u := &model.User{ID: 7, Email: "x@creamline.test", Name: "X", Role: "operator"}
	token, err := auth.SignToken(u, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}
