// FilePath: internal/hubservice/hubservice.go
package hubservice

import (
	"github.com/bartech/facilityhub/internal/config"
	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/hub"
	"github.com/bartech/facilityhub/internal/repository"
)

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Facilities repository.FacilityRepository
	Readings   repository.ReadingRepository
	Hub        *hub.Hub

	status config.StatusConfig
}

// New creates a new HubService instance. The notification hub is created
// here so its snapshot source is always this service's latest-readings view.
func New(
	facilities repository.FacilityRepository,
	readings repository.ReadingRepository,
	status config.StatusConfig,
) *HubService {
	svc := &HubService{
		Facilities: facilities,
		Readings:   readings,
		status:     status,
	}
	svc.Hub = hub.New(svc)
	return svc
}

// Validate checks if all required dependencies are initialized
func (s *HubService) Validate() error {
	if s.Facilities == nil {
		return ErrMissingRepository("facilities")
	}
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.status.OnlineWithin <= 0 || s.status.WarningWithin <= s.status.OnlineWithin {
		return errors.NewInternalError("invalid status thresholds", nil)
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
