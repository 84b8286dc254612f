// FilePath: internal/hubservice/hubservice.facility.go
package hubservice

import (
	"context"
	"time"

	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// CreateFacility registers a facility. IDs are normally assigned by the
// admin workflow; one is generated when absent.
func (s *HubService) CreateFacility(ctx context.Context, facility *models.Facility) error {
	if facility.Name == "" {
		return errors.NewValidationError("facility name is required", nil)
	}
	if facility.ID == "" {
		facility.ID = nuts.NID("fac", 8)
	}
	return s.Facilities.Create(ctx, facility)
}

func (s *HubService) GetFacility(ctx context.Context, id string) (*models.Facility, error) {
	return s.Facilities.Get(ctx, id)
}

func (s *HubService) UpdateFacility(ctx context.Context, facility *models.Facility) error {
	return s.Facilities.Update(ctx, facility)
}

func (s *HubService) DeleteFacility(ctx context.Context, id string) error {
	return s.Facilities.Delete(ctx, id)
}

func (s *HubService) ListFacilities(ctx context.Context, offset, limit int) ([]*models.Facility, error) {
	return s.Facilities.List(ctx, offset, limit)
}

// StatusOf derives a facility's connection status from the recency of its
// latest reading, using the configured thresholds.
func (s *HubService) StatusOf(ctx context.Context, facilityID string) (models.ConnectionStatus, error) {
	latest, err := s.Readings.LatestFor(ctx, facilityID)
	if err != nil {
		if errors.IsNotFound(err) {
			return models.StatusNeverConnected, nil
		}
		return "", err
	}
	return s.statusForObservedAt(latest.ObservedAt, time.Now().UTC()), nil
}

// StatusSummary computes the derived status of every active facility plus
// aggregate counts, in a single latest-readings query.
func (s *HubService) StatusSummary(ctx context.Context) (*models.StatusReport, error) {
	active, err := s.Facilities.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.StatusReport{Facilities: make([]*models.FacilityStatus, 0, len(active))}
	report.Summary.Total = len(active)
	if len(active) == 0 {
		return report, nil
	}

	ids := make([]string, 0, len(active))
	for _, facility := range active {
		ids = append(ids, facility.ID)
	}
	readings, err := s.Readings.LatestForAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	latestByFacility := make(map[string]*models.Reading, len(readings))
	for _, reading := range readings {
		latestByFacility[reading.FacilityID] = reading
	}

	now := time.Now().UTC()
	for _, facility := range active {
		entry := &models.FacilityStatus{
			FacilityID:   facility.ID,
			FacilityName: facility.Name,
			Status:       models.StatusNeverConnected,
		}

		if latest, ok := latestByFacility[facility.ID]; ok {
			entry.Status = s.statusForObservedAt(latest.ObservedAt, now)
			entry.Temperature = latest.Temperature
			entry.Humidity = latest.Humidity
			entry.GasStatus = latest.GasStatus
			observedAt := latest.ObservedAt
			entry.LastUpdate = &observedAt
			minutes := int64(now.Sub(observedAt).Minutes())
			entry.MinutesSinceUpdate = &minutes
		}

		switch entry.Status {
		case models.StatusOnline:
			report.Summary.Online++
		case models.StatusWarning:
			report.Summary.Warning++
		case models.StatusOffline:
			report.Summary.Offline++
		default:
			report.Summary.NeverConnected++
		}
		report.Facilities = append(report.Facilities, entry)
	}

	return report, nil
}

func (s *HubService) statusForObservedAt(observedAt, now time.Time) models.ConnectionStatus {
	age := now.Sub(observedAt)
	switch {
	case age <= s.status.OnlineWithin:
		return models.StatusOnline
	case age <= s.status.WarningWithin:
		return models.StatusWarning
	default:
		return models.StatusOffline
	}
}
