// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	PrometheusEndpoint string
	LokiEndpoint       string
}

// Service is the sink for operational events: ingest failures, dropped
// fan-out deliveries, retention purges.
type Service struct {
	config Config
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config: config,
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
	// TODO: push to Prometheus/Loki once the observability stack lands
	// prometheus.IncrementCounter("facilityhub_events_total", labels)
	// loki.LogEvent(eventName, ts, labels)
}
