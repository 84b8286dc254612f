// FilePath: internal/hubservice/hubservice.monitoring.go
package hubservice

import (
	"context"
	"time"

	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SubmitReading is the single write path for sensor data. It validates the
// submission against the registry, appends to the store and hands the
// persisted reading to the hub. Fan-out never delays or fails the caller.
func (s *HubService) SubmitReading(ctx context.Context, submission *models.ReadingSubmission) (*models.Reading, error) {
	submission.Normalize()
	if submission.FacilityID == "" {
		return nil, errors.NewValidationError("facility_id is required", nil)
	}

	facility, err := s.Facilities.Get(ctx, submission.FacilityID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("facility not found", err)
		}
		return nil, err
	}
	if !facility.IsActive {
		return nil, errors.NewInactiveError("facility is inactive", nil)
	}

	reading := submission.Reading()
	if err := s.Readings.Append(ctx, reading); err != nil {
		return nil, err
	}

	s.Hub.Publish(reading)
	return reading, nil
}

// LatestFor returns the current reading for one facility.
func (s *HubService) LatestFor(ctx context.Context, facilityID string) (*models.Reading, error) {
	return s.Readings.LatestFor(ctx, facilityID)
}

// LatestForAll returns the latest reading per facility. With no explicit id
// list only active facilities are included.
func (s *HubService) LatestForAll(ctx context.Context, facilityIDs []string) ([]*models.Reading, error) {
	if len(facilityIDs) == 0 {
		active, err := s.Facilities.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		if len(active) == 0 {
			return []*models.Reading{}, nil
		}
		facilityIDs = make([]string, 0, len(active))
		for _, facility := range active {
			facilityIDs = append(facilityIDs, facility.ID)
		}
	}
	return s.Readings.LatestForAll(ctx, facilityIDs)
}

// LatestSnapshot implements hub.SnapshotSource for on-demand observer
// snapshots: the latest reading of every active facility.
func (s *HubService) LatestSnapshot(ctx context.Context) ([]*models.Reading, error) {
	return s.LatestForAll(ctx, nil)
}

// History returns a page of readings. Not authoritative for status decisions.
func (s *HubService) History(ctx context.Context, filters models.HistoryFilters) (*models.ReadingPage, error) {
	filters.ApplyDefaults()

	total, readings, err := s.Readings.History(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &models.ReadingPage{
		History:    readings,
		Pagination: models.NewPagination(filters.Page, filters.Limit, total),
	}, nil
}

// Statistics aggregates readings over a named period (1h, 24h, 7d, 30d).
func (s *HubService) Statistics(ctx context.Context, facilityID, period string) (string, *models.ReadingStatistics, error) {
	window := 24 * time.Hour
	switch period {
	case "1h":
		window = time.Hour
	case "24h", "":
		period = "24h"
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		nuts.L.Warnf("[HubService] Unknown statistics period %q, using 24h", period)
		period = "24h"
	}

	stats, err := s.Readings.Statistics(ctx, facilityID, time.Now().UTC().Add(-window))
	if err != nil {
		return "", nil, err
	}
	return period, stats, nil
}
