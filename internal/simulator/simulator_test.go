// FilePath: internal/simulator/simulator_test.go
package simulator

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartech/facilityhub/internal/models"
)

func TestGenerate_ValuesWithinDeviceRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		submission := Generate(rng, "fac_or1")

		assert.Equal(t, "fac_or1", submission.FacilityID)
		require.NotNil(t, submission.Temperature)
		assert.GreaterOrEqual(t, *submission.Temperature, 20.0)
		assert.LessOrEqual(t, *submission.Temperature, 35.0)
		require.NotNil(t, submission.Humidity)
		assert.GreaterOrEqual(t, *submission.Humidity, 40.0)
		assert.LessOrEqual(t, *submission.Humidity, 80.0)
		assert.True(t, submission.GasStatus.Valid())
		assert.True(t, submission.StatusLamp1.Valid())
		assert.True(t, submission.StatusOpLamp.Valid())
	}
}

func TestGenerate_DeterministicForEqualSeeds(t *testing.T) {
	first := Generate(rand.New(rand.NewSource(7)), "fac_or1")
	second := Generate(rand.New(rand.NewSource(7)), "fac_or1")

	assert.Equal(t, *first.Temperature, *second.Temperature)
	assert.Equal(t, first.GasStatus, second.GasStatus)
}

// captureServer records submissions and answers like the ingest endpoint.
type captureServer struct {
	mu          sync.Mutex
	submissions []models.ReadingSubmission
	nextID      int64
}

func (c *captureServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var submission models.ReadingSubmission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c.mu.Lock()
		c.submissions = append(c.submissions, submission)
		c.nextID++
		id := c.nextID
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": models.Reading{
				ID:         id,
				FacilityID: submission.FacilityID,
				ObservedAt: time.Now().UTC(),
			},
		})
	}
}

func (c *captureServer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.submissions)
}

func TestSubmitOnce_PostsToSubmitEndpoint(t *testing.T) {
	capture := &captureServer{}
	mux := http.NewServeMux()
	mux.Handle("/api/v1/monitoring/submit", capture.handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	harness := NewHarness(server.URL, 2*time.Second, 1)

	reading, err := harness.SubmitOnce(context.Background(), "fac_or1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), reading.ID)
	assert.Equal(t, "fac_or1", reading.FacilityID)
	assert.Equal(t, 1, capture.count())
}

func TestSubmitOnce_RejectionSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"not_found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	harness := NewHarness(server.URL, 2*time.Second, 1)

	_, err := harness.SubmitOnce(context.Background(), "fac_ghost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRoundRobin_SubmitsForEveryFacility(t *testing.T) {
	capture := &captureServer{}
	mux := http.NewServeMux()
	mux.Handle("/api/v1/monitoring/submit", capture.handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	harness := NewHarness(server.URL, 2*time.Second, 1)

	err := harness.RoundRobin(context.Background(), []string{"fac_or1", "fac_icu", "fac_er"})

	require.NoError(t, err)
	require.Equal(t, 3, capture.count())
	assert.Equal(t, "fac_or1", capture.submissions[0].FacilityID)
	assert.Equal(t, "fac_icu", capture.submissions[1].FacilityID)
	assert.Equal(t, "fac_er", capture.submissions[2].FacilityID)
}

func TestStartStop_SchedulesAndCancels(t *testing.T) {
	capture := &captureServer{}
	mux := http.NewServeMux()
	mux.Handle("/api/v1/monitoring/submit", capture.handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	harness := NewHarness(server.URL, 2*time.Second, 1)

	harness.Start("fac_or1", 10*time.Millisecond)
	assert.Equal(t, []string{"fac_or1"}, harness.Active())

	require.Eventually(t, func() bool { return capture.count() >= 2 },
		2*time.Second, 5*time.Millisecond, "scheduled submissions should keep arriving")

	assert.True(t, harness.Stop("fac_or1"))
	assert.False(t, harness.Stop("fac_or1"), "second stop reports nothing was running")
	assert.Empty(t, harness.Active())

	harness.StopAll() // waits for the worker to exit
	settled := capture.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, capture.count(), "no submissions after stop")
}

func TestStart_ReplacesExistingSchedule(t *testing.T) {
	capture := &captureServer{}
	mux := http.NewServeMux()
	mux.Handle("/api/v1/monitoring/submit", capture.handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	harness := NewHarness(server.URL, 2*time.Second, 1)
	defer harness.StopAll()

	harness.Start("fac_or1", time.Hour)
	harness.Start("fac_or1", time.Hour)

	assert.Equal(t, []string{"fac_or1"}, harness.Active())
}
