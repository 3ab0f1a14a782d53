// Package sweeper periodically transitions stale online devices to offline.
// The real sweep ships disabled: the default strategy is a no-op and the
// actual transition only runs when explicitly enabled, because the rest of
// the system currently expects devices to stay online indefinitely.
package sweeper

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/creamline/iotcore/pkg/storage"
)

// Strategy performs one sweep pass.
type Strategy interface {
	Sweep(now time.Time) error
}

// NoopStrategy leaves every device alone.
type NoopStrategy struct{}

func (NoopStrategy) Sweep(time.Time) error {
	return nil
}

// StaleStrategy marks every ONLINE device not seen since the offline
// threshold as OFFLINE and stamps lastOfflineAt.
type StaleStrategy struct {
	store     storage.Interface
	threshold time.Duration
}

func NewStaleStrategy(store storage.Interface, threshold time.Duration) *StaleStrategy {
	return &StaleStrategy{
		store:     store,
		threshold: threshold,
	}
}

func (s *StaleStrategy) Sweep(now time.Time) error {
	cutoff := now.Add(-s.threshold)
	n, err := s.store.Devices().MarkOfflineStale(cutoff, now)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("sweeper marked %d stale devices offline", n)
	}
	return nil
}

// Sweeper runs a strategy on a fixed interval.
type Sweeper struct {
	strategy Strategy
	interval time.Duration
}

func New(strategy Strategy, interval time.Duration) *Sweeper {
	return &Sweeper{
		strategy: strategy,
		interval: interval,
	}
}

// Run loops until stopCh closes. Sweep errors are logged and swallowed so a
// transient store failure never kills the loop.
func (s *Sweeper) Run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if err := s.strategy.Sweep(now.UTC()); err != nil {
				log.Errorf("sweeper pass failed: %v", err)
			}
		case <-stopCh:
			return
		}
	}
}
