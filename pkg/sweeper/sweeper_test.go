package sweeper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamline/iotcore/pkg/model"
	"github.com/creamline/iotcore/pkg/storage"
	"github.com/creamline/iotcore/pkg/storage/memory"
)

func seedDevice(t *testing.T, store storage.Interface, id string, status model.DeviceStatus, lastSeen time.Time) {
	t.Helper()

	require.NoError(t, store.Devices().Upsert(&model.Device{
		ID:         id,
		Kind:       "BMC",
		Status:     status,
		LastSeenAt: lastSeen,
	}))
}

func Test_StaleStrategy_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	threshold := 2 * time.Minute

	store := memory.NewStore()
	seedDevice(t, store, "BMC-01", model.StatusOnline, now.Add(-5*time.Minute))
	seedDevice(t, store, "BMC-02", model.StatusOnline, now.Add(-30*time.Second))
	seedDevice(t, store, "BMC-03", model.StatusOffline, now.Add(-10*time.Minute))

	require.NoError(t, NewStaleStrategy(store, threshold).Sweep(now))

	stale, err := store.Devices().FindByID("BMC-01")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stale.Status)
	require.NotNil(t, stale.LastOfflineAt)
	assert.True(t, stale.LastOfflineAt.Equal(now))

	fresh, err := store.Devices().FindByID("BMC-02")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, fresh.Status)
	assert.Nil(t, fresh.LastOfflineAt)

	// an already offline device is not re-stamped
	offline, err := store.Devices().FindByID("BMC-03")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, offline.Status)
	assert.Nil(t, offline.LastOfflineAt)
}

func Test_StaleStrategy_ExactCutoffStaysOnline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	threshold := 2 * time.Minute

	store := memory.NewStore()
	seedDevice(t, store, "BMC-01", model.StatusOnline, now.Add(-threshold))

	require.NoError(t, NewStaleStrategy(store, threshold).Sweep(now))

	dev, err := store.Devices().FindByID("BMC-01")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, dev.Status)
}

func Test_NoopStrategy_LeavesEverythingAlone(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	seedDevice(t, store, "BMC-01", model.StatusOnline, now.Add(-24*time.Hour))

	require.NoError(t, NoopStrategy{}.Sweep(now))

	dev, err := store.Devices().FindByID("BMC-01")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, dev.Status)
}

type failingStrategy struct {
	calls int
}

func (s *failingStrategy) Sweep(time.Time) error {
	s.calls++
	return errors.New("store unavailable")
}

func Test_Sweeper_SurvivesStrategyErrors(t *testing.T) {
	strategy := &failingStrategy{}
	s := New(strategy, 10*time.Millisecond)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	go func() {
		s.Run(stopCh)
		close(doneCh)
	}()

	time.Sleep(60 * time.Millisecond)
	close(stopCh)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	assert.GreaterOrEqual(t, strategy.calls, 2)
}
