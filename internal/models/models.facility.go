// FilePath: internal/models/models.facility.go
package models

import "time"

// Facility is a monitored site (hospital building or operating suite) that
// submits readings. IDs are stable and externally assigned by the admin
// workflows; devices are provisioned with them.
type Facility struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ConnectionStatus is derived from the recency of a facility's latest reading,
// never stored.
type ConnectionStatus string

const (
	StatusOnline         ConnectionStatus = "online"
	StatusWarning        ConnectionStatus = "warning"
	StatusOffline        ConnectionStatus = "offline"
	StatusNeverConnected ConnectionStatus = "never_connected"
)

// FacilityStatus pairs a facility with its derived connection state and the
// headline values from its latest reading.
type FacilityStatus struct {
	FacilityID         string           `json:"facility_id"`
	FacilityName       string           `json:"facility_name"`
	Status             ConnectionStatus `json:"status"`
	Temperature        *float64         `json:"temperature,omitempty"`
	Humidity           *float64         `json:"humidity,omitempty"`
	GasStatus          GasLevel         `json:"gas_status,omitempty"`
	LastUpdate         *time.Time       `json:"last_update,omitempty"`
	MinutesSinceUpdate *int64           `json:"minutes_since_update,omitempty"`
}

// StatusSummary aggregates per-facility statuses for the dashboard header.
type StatusSummary struct {
	Total          int `json:"total"`
	Online         int `json:"online"`
	Warning        int `json:"warning"`
	Offline        int `json:"offline"`
	NeverConnected int `json:"never_connected"`
}

// StatusReport is the payload of the status summary endpoint.
type StatusReport struct {
	Facilities []*FacilityStatus `json:"facilities"`
	Summary    StatusSummary     `json:"summary"`
}
