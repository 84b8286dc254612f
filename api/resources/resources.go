// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/bartech/facilityhub/internal/hubservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Monitoring  *MonitoringHandlers
	Facilities  *FacilityHandlers
	Stream      *StreamHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService) *Resources {
	return &Resources{
		Monitoring: &MonitoringHandlers{hubservice: svc},
		Facilities: &FacilityHandlers{hubservice: svc},
		Stream:     &StreamHandlers{hubservice: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}
