package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
)

func Test_DeviceStore_UpsertPreservesCreation(t *testing.T) {
	store := NewStore()

	first := &model.Device{
		ID: "BMC-01", Kind: "BMC", Status: model.StatusOnline,
		LastSeenAt: time.Now().UTC(),
	}
	require.NoError(t, store.Devices().Upsert(first))
	createdAt := first.CreatedAt
	require.False(t, createdAt.IsZero())

	second := &model.Device{
		ID: "BMC-01", Kind: "TANK", Status: model.StatusOnline,
		LastSeenAt: time.Now().UTC(),
	}
	require.NoError(t, store.Devices().Upsert(second))

	m, err := store.Devices().FindByID("BMC-01")
	require.NoError(t, err)
	assert.Equal(t, "TANK", m.Kind)
	assert.True(t, m.CreatedAt.Equal(createdAt))
}

func Test_DeviceStore_FindByIDNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Devices().FindByID("NOPE-01")
	assert.Equal(t, storage.ErrNotFound, err)

	err = store.Devices().MarkOffline("NOPE-01", time.Now().UTC())
	assert.Equal(t, storage.ErrNotFound, err)
}

func Test_TelemetryStore_NewestWindowOldestFirst(t *testing.T) {
	store := NewStore()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Telemetry().Create(&model.Telemetry{
			DeviceID:  "FLOW-01",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Payload:   map[string]interface{}{},
		}))
	}

	ms, err := store.Telemetry().ListByDevice("FLOW-01", nil, 3)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.True(t, ms[0].Timestamp.Equal(base.Add(2*time.Minute)))
	assert.True(t, ms[2].Timestamp.Equal(base.Add(4*time.Minute)))

	since := base.Add(3 * time.Minute)
	ms, err = store.Telemetry().ListByDevice("FLOW-01", &since, 10)
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func Test_AlertStore_NewestFirstAndAcknowledge(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Alerts().CreateBatch([]model.Alert{
		{DeviceID: "VAC-01", Type: model.AlertBattery, Message: "first"},
		{DeviceID: "VAC-01", Type: model.AlertBattery, Message: "second"},
		{DeviceID: "CONV-01", Type: model.AlertTorque, Message: "other device"},
	}))

	ms, err := store.Alerts().List(storage.AlertFilter{DeviceID: "VAC-01"})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "second", ms[0].Message)
	assert.Equal(t, "first", ms[1].Message)

	m, err := store.Alerts().Acknowledge(ms[1].ID)
	require.NoError(t, err)
	assert.True(t, m.Acknowledged)

	_, err = store.Alerts().Acknowledge(999)
	assert.Equal(t, storage.ErrNotFound, err)
}

func Test_UserStore_DuplicateEmail(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Users().Create(&model.User{
		Email: "Ops@Creamline.Test", Name: "Ops", Role: model.RoleOperator, PasswordHash: "x",
	}))

	// emails are case-insensitive
	err := store.Users().Create(&model.User{
		Email: "ops@creamline.test", Name: "Dup", Role: model.RoleOperator, PasswordHash: "x",
	})
	assert.Equal(t, storage.ErrDuplicate, err)

	m, err := store.Users().FindByEmail("OPS@creamline.test")
	require.NoError(t, err)
	assert.Equal(t, "Ops", m.Name)
}
