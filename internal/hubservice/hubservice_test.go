// FilePath: internal/hubservice/hubservice_test.go
package hubservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartech/facilityhub/internal/config"
	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/models"
)

// baseRepo stubs the transactional surface repositories share.
type baseRepo struct{}

func (baseRepo) BeginTx(_ context.Context) (database.Transaction, error) { return nil, nil }

// fakeFacilityRepo is an in-memory facility registry.
type fakeFacilityRepo struct {
	baseRepo
	mu         sync.Mutex
	facilities map[string]*models.Facility
}

func newFakeFacilityRepo(facilities ...*models.Facility) *fakeFacilityRepo {
	repo := &fakeFacilityRepo{facilities: make(map[string]*models.Facility)}
	for _, facility := range facilities {
		repo.facilities[facility.ID] = facility
	}
	return repo
}

func (r *fakeFacilityRepo) Create(_ context.Context, facility *models.Facility) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities[facility.ID] = facility
	return nil
}

func (r *fakeFacilityRepo) Get(_ context.Context, id string) (*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	facility, ok := r.facilities[id]
	if !ok {
		return nil, errors.NewNotFoundError("facility not found", nil)
	}
	return facility, nil
}

func (r *fakeFacilityRepo) Update(_ context.Context, facility *models.Facility) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.facilities[facility.ID]; !ok {
		return errors.NewNotFoundError("facility not found", nil)
	}
	r.facilities[facility.ID] = facility
	return nil
}

func (r *fakeFacilityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.facilities[id]; !ok {
		return errors.NewNotFoundError("facility not found", nil)
	}
	delete(r.facilities, id)
	return nil
}

func (r *fakeFacilityRepo) List(_ context.Context, offset, limit int) ([]*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*models.Facility{}
	for _, facility := range r.facilities {
		result = append(result, facility)
	}
	return result, nil
}

func (r *fakeFacilityRepo) ListActive(_ context.Context) ([]*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*models.Facility{}
	for _, facility := range r.facilities {
		if facility.IsActive {
			result = append(result, facility)
		}
	}
	return result, nil
}

// fakeReadingRepo appends in memory and tracks the latest reading per
// facility the same way the real store's latest table does.
type fakeReadingRepo struct {
	baseRepo
	mu     sync.Mutex
	nextID int64
	all    []*models.Reading
	latest map[string]*models.Reading
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{latest: make(map[string]*models.Reading)}
}

func (r *fakeReadingRepo) Append(_ context.Context, reading *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reading.ID = r.nextID
	reading.ObservedAt = time.Now().UTC()
	r.all = append(r.all, reading)

	current, ok := r.latest[reading.FacilityID]
	if !ok || reading.ObservedAt.After(current.ObservedAt) ||
		(reading.ObservedAt.Equal(current.ObservedAt) && reading.ID > current.ID) {
		r.latest[reading.FacilityID] = reading
	}
	return nil
}

func (r *fakeReadingRepo) LatestFor(_ context.Context, facilityID string) (*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reading, ok := r.latest[facilityID]
	if !ok {
		return nil, errors.NewNotFoundError("no readings for facility", nil)
	}
	return reading, nil
}

func (r *fakeReadingRepo) LatestForAll(_ context.Context, facilityIDs []string) ([]*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*models.Reading{}
	for _, id := range facilityIDs {
		if reading, ok := r.latest[id]; ok {
			result = append(result, reading)
		}
	}
	return result, nil
}

func (r *fakeReadingRepo) History(_ context.Context, filters models.HistoryFilters) (int64, []*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.Reading{}
	for _, reading := range r.all {
		if filters.FacilityID != "" && reading.FacilityID != filters.FacilityID {
			continue
		}
		matched = append(matched, reading)
	}
	return int64(len(matched)), matched, nil
}

func (r *fakeReadingRepo) Statistics(_ context.Context, facilityID string, since time.Time) (*models.ReadingStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.ReadingStatistics{}
	for _, reading := range r.all {
		if facilityID != "" && reading.FacilityID != facilityID {
			continue
		}
		stats.TotalRecords++
	}
	return stats, nil
}

func (r *fakeReadingRepo) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeReadingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

var testStatus = config.StatusConfig{
	OnlineWithin:  time.Minute,
	WarningWithin: 5 * time.Minute,
}

func newTestService(facilities ...*models.Facility) (*HubService, *fakeReadingRepo) {
	readings := newFakeReadingRepo()
	return New(newFakeFacilityRepo(facilities...), readings, testStatus), readings
}

func activeFacility(id string) *models.Facility {
	return &models.Facility{ID: id, Name: "Facility " + id, IsActive: true}
}

func TestSubmitReading_PersistsAndPublishes(t *testing.T) {
	svc, readings := newTestService(activeFacility("fac_or1"))

	sub := svc.Hub.Subscribe("")
	defer svc.Hub.Unsubscribe(sub)
	<-sub.Events() // welcome

	temperature := 23.4
	reading, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{
		FacilityID:  "fac_or1",
		Temperature: &temperature,
		GasStatus:   models.GasMedium,
		StatusLamp1: models.SwitchOn,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), reading.ID)
	assert.Equal(t, models.GasMedium, reading.GasStatus)
	assert.Equal(t, models.SwitchOn, reading.StatusLamp1)
	assert.Equal(t, models.SwitchOff, reading.StatusLamp2)
	assert.Equal(t, 1, readings.count())

	select {
	case event := <-sub.Events():
		published, ok := event.Data.(*models.Reading)
		require.True(t, ok)
		assert.Equal(t, reading.ID, published.ID)
	case <-time.After(time.Second):
		t.Fatal("reading was not fanned out")
	}
}

func TestSubmitReading_AcceptsSourceIDAlias(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"))

	reading, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{
		SourceID: "fac_or1",
	})

	require.NoError(t, err)
	assert.Equal(t, "fac_or1", reading.FacilityID)
	assert.Equal(t, models.GasLow, reading.GasStatus, "absent gas level defaults to Low")
}

func TestSubmitReading_MissingFacilityIDIsRejected(t *testing.T) {
	svc, readings := newTestService(activeFacility("fac_or1"))

	_, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, readings.count(), "rejected submissions must not be appended")
}

func TestSubmitReading_UnknownFacilityIsRejected(t *testing.T) {
	svc, readings := newTestService(activeFacility("fac_or1"))

	_, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{
		FacilityID: "fac_ghost",
	})

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, readings.count())
}

func TestSubmitReading_InactiveFacilityIsRejected(t *testing.T) {
	inactive := &models.Facility{ID: "fac_closed", Name: "Closed Wing", IsActive: false}
	svc, readings := newTestService(inactive)

	_, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{
		FacilityID: "fac_closed",
	})

	require.Error(t, err)
	assert.True(t, errors.IsInactive(err))
	assert.Equal(t, 0, readings.count())
}

func TestLatestForAll_DefaultsToActiveFacilities(t *testing.T) {
	inactive := &models.Facility{ID: "fac_closed", Name: "Closed Wing", IsActive: false}
	svc, _ := newTestService(activeFacility("fac_or1"), inactive)

	_, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{FacilityID: "fac_or1"})
	require.NoError(t, err)

	readings, err := svc.LatestForAll(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "fac_or1", readings[0].FacilityID)
}

func TestLatestForAll_LatestWinsPerFacility(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"))

	first, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{FacilityID: "fac_or1"})
	require.NoError(t, err)
	second, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{FacilityID: "fac_or1"})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	readings, err := svc.LatestForAll(context.Background(), []string{"fac_or1"})

	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, second.ID, readings[0].ID)
}

func TestStatusOf_NeverConnectedWithoutReadings(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"))

	status, err := svc.StatusOf(context.Background(), "fac_or1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusNeverConnected, status)
}

func TestStatusForObservedAt_Thresholds(t *testing.T) {
	svc, _ := newTestService()
	now := time.Now().UTC()

	tests := []struct {
		name string
		age  time.Duration
		want models.ConnectionStatus
	}{
		{"fresh reading is online", 30 * time.Second, models.StatusOnline},
		{"exactly at online threshold", time.Minute, models.StatusOnline},
		{"between thresholds is warning", 3 * time.Minute, models.StatusWarning},
		{"exactly at warning threshold", 5 * time.Minute, models.StatusWarning},
		{"beyond warning is offline", 10 * time.Minute, models.StatusOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.statusForObservedAt(now.Add(-tt.age), now))
		})
	}
}

func TestStatusSummary_CountsByDerivedStatus(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"), activeFacility("fac_icu"))

	_, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{FacilityID: "fac_or1"})
	require.NoError(t, err)

	report, err := svc.StatusSummary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Online)
	assert.Equal(t, 1, report.Summary.NeverConnected)
	require.Len(t, report.Facilities, 2)

	byID := make(map[string]*models.FacilityStatus)
	for _, entry := range report.Facilities {
		byID[entry.FacilityID] = entry
	}
	assert.Equal(t, models.StatusOnline, byID["fac_or1"].Status)
	assert.NotNil(t, byID["fac_or1"].LastUpdate)
	assert.Equal(t, models.StatusNeverConnected, byID["fac_icu"].Status)
	assert.Nil(t, byID["fac_icu"].LastUpdate)
}

func TestSnapshotAfterSubmitIncludesNewReading(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"))

	sub := svc.Hub.Subscribe("")
	defer svc.Hub.Unsubscribe(sub)
	<-sub.Events() // welcome

	reading, err := svc.SubmitReading(context.Background(), &models.ReadingSubmission{FacilityID: "fac_or1"})
	require.NoError(t, err)
	<-sub.Events() // fan-out of the submit

	require.NoError(t, svc.Hub.Snapshot(context.Background(), sub))

	event := <-sub.Events()
	readings, ok := event.Data.([]*models.Reading)
	require.True(t, ok)
	require.Len(t, readings, 1)
	assert.Equal(t, reading.ID, readings[0].ID)
}

func TestSimulate_RunsThroughSubmissionPath(t *testing.T) {
	svc, readings := newTestService(activeFacility("fac_or1"))

	reading, err := svc.Simulate(context.Background(), "fac_or1")

	require.NoError(t, err)
	assert.Equal(t, "fac_or1", reading.FacilityID)
	require.NotNil(t, reading.Temperature)
	assert.GreaterOrEqual(t, *reading.Temperature, 20.0)
	assert.LessOrEqual(t, *reading.Temperature, 35.0)
	assert.Equal(t, 1, readings.count())

	_, err = svc.Simulate(context.Background(), "fac_ghost")
	assert.True(t, errors.IsNotFound(err), "simulation validates the facility like any submission")
}

func TestStatistics_PeriodResolution(t *testing.T) {
	svc, _ := newTestService(activeFacility("fac_or1"))

	period, stats, err := svc.Statistics(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "24h", period)
	require.NotNil(t, stats)

	period, _, err = svc.Statistics(context.Background(), "", "7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", period)

	period, _, err = svc.Statistics(context.Background(), "", "bogus")
	require.NoError(t, err)
	assert.Equal(t, "24h", period, "unknown periods fall back to 24h")
}

func TestCreateFacility_GeneratesIDWhenAbsent(t *testing.T) {
	svc, _ := newTestService()

	facility := &models.Facility{Name: "New Wing", IsActive: true}
	require.NoError(t, svc.CreateFacility(context.Background(), facility))
	assert.NotEmpty(t, facility.ID)

	err := svc.CreateFacility(context.Background(), &models.Facility{})
	assert.True(t, errors.IsValidation(err))
}
