// FilePath: internal/retention/retention.go
package retention

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bartech/facilityhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Service is the one collaborator allowed to delete readings: it
// periodically purges everything older than the configured horizon.
// Readings are otherwise immutable and append-only.
type Service struct {
	readings repository.ReadingRepository
	events   *nuts.EventEmitter
	horizon  time.Duration
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a retention service purging readings older than horizon,
// checking every interval.
func New(readings repository.ReadingRepository, horizon, interval time.Duration) *Service {
	return &Service{
		readings: readings,
		events:   nuts.NewEventEmitter(),
		horizon:  horizon,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run starts the periodic purge loop in its own goroutine.
func (s *Service) Run() {
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		nuts.L.Infof("[Retention] Purging readings older than %v every %v", s.horizon, s.interval)
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				if _, err := s.PurgeOnce(ctx); err != nil {
					nuts.L.Errorf("[Retention] Purge failed: %v", err)
				}
				cancel()
			}
		}
	}()
}

// PurgeOnce deletes readings older than the horizon and emits a
// readings.purged event with the deleted row count.
func (s *Service) PurgeOnce(ctx context.Context) (int64, error) {
	before := time.Now().UTC().Add(-s.horizon)
	deleted, err := s.readings.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge readings: %w", err)
	}

	if deleted > 0 {
		s.events.Emit("readings.purged", strconv.FormatInt(deleted, 10))
	}
	return deleted, nil
}

// OnPurge registers a callback invoked with the deleted row count after each
// purge that removed at least one reading.
func (s *Service) OnPurge(handler func(deleted int64)) {
	s.events.On("readings.purged", "retention_handler", func(args ...interface{}) {
		if len(args) == 0 {
			return
		}
		raw, ok := args[0].(string)
		if !ok {
			return
		}
		if deleted, err := strconv.ParseInt(raw, 10, 64); err == nil {
			handler(deleted)
		}
	})
}

// Stop halts the purge loop and waits for it to exit. Safe to call twice.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.done != nil {
		<-s.done
	}
}
