// FilePath: internal/retention/retention_test.go
package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/models"
)

// purgeOnlyRepo satisfies the reading repository; only DeleteBefore matters
// here.
type purgeOnlyRepo struct {
	mu      sync.Mutex
	deleted int64
	err     error
	cutoffs []time.Time
}

func (r *purgeOnlyRepo) BeginTx(_ context.Context) (database.Transaction, error) { return nil, nil }

func (r *purgeOnlyRepo) Append(_ context.Context, _ *models.Reading) error { return nil }

func (r *purgeOnlyRepo) LatestFor(_ context.Context, _ string) (*models.Reading, error) {
	return nil, nil
}

func (r *purgeOnlyRepo) LatestForAll(_ context.Context, _ []string) ([]*models.Reading, error) {
	return nil, nil
}

func (r *purgeOnlyRepo) History(_ context.Context, _ models.HistoryFilters) (int64, []*models.Reading, error) {
	return 0, nil, nil
}

func (r *purgeOnlyRepo) Statistics(_ context.Context, _ string, _ time.Time) (*models.ReadingStatistics, error) {
	return nil, nil
}

func (r *purgeOnlyRepo) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, before)
	return r.deleted, r.err
}

func TestPurgeOnce_DeletesBeforeHorizon(t *testing.T) {
	repo := &purgeOnlyRepo{deleted: 12}
	svc := New(repo, 90*24*time.Hour, time.Hour)

	start := time.Now().UTC()
	deleted, err := svc.PurgeOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	require.Len(t, repo.cutoffs, 1)
	expected := start.Add(-90 * 24 * time.Hour)
	assert.WithinDuration(t, expected, repo.cutoffs[0], time.Second)
}

func TestPurgeOnce_WrapsRepositoryError(t *testing.T) {
	repo := &purgeOnlyRepo{err: assert.AnError}
	svc := New(repo, time.Hour, time.Hour)

	_, err := svc.PurgeOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to purge readings")
}

func TestOnPurge_NotifiedWithDeletedCount(t *testing.T) {
	repo := &purgeOnlyRepo{deleted: 7}
	svc := New(repo, time.Hour, time.Hour)

	notified := make(chan int64, 1)
	svc.OnPurge(func(deleted int64) { notified <- deleted })

	_, err := svc.PurgeOnce(context.Background())
	require.NoError(t, err)

	select {
	case deleted := <-notified:
		assert.Equal(t, int64(7), deleted)
	case <-time.After(time.Second):
		t.Fatal("purge handler was not invoked")
	}
}

func TestOnPurge_SkippedWhenNothingDeleted(t *testing.T) {
	repo := &purgeOnlyRepo{deleted: 0}
	svc := New(repo, time.Hour, time.Hour)

	notified := make(chan int64, 1)
	svc.OnPurge(func(deleted int64) { notified <- deleted })

	_, err := svc.PurgeOnce(context.Background())
	require.NoError(t, err)

	select {
	case <-notified:
		t.Fatal("handler must not fire for empty purges")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunStop_LoopPurgesUntilStopped(t *testing.T) {
	repo := &purgeOnlyRepo{deleted: 1}
	svc := New(repo, time.Hour, 10*time.Millisecond)

	svc.Run()
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.cutoffs) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	svc.Stop()
	repo.mu.Lock()
	settled := len(repo.cutoffs)
	repo.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	repo.mu.Lock()
	assert.Equal(t, settled, len(repo.cutoffs), "no purges after stop")
	repo.mu.Unlock()

	assert.NotPanics(t, svc.Stop, "stop is safe to call twice")
}
