// FilePath: internal/models/models.reading.go
package models

import "time"

// GasLevel is the enumerated gas sensor state reported by facilities.
type GasLevel string

const (
	GasLow    GasLevel = "Low"
	GasMedium GasLevel = "Medium"
	GasHigh   GasLevel = "High"
)

// Valid reports whether the value is one of the known gas levels.
func (g GasLevel) Valid() bool {
	switch g {
	case GasLow, GasMedium, GasHigh:
		return true
	}
	return false
}

// SwitchState is the ON/OFF state of a monitored actuator slot.
type SwitchState string

const (
	SwitchOn  SwitchState = "ON"
	SwitchOff SwitchState = "OFF"
)

// Valid reports whether the value is ON or OFF.
func (s SwitchState) Valid() bool {
	return s == SwitchOn || s == SwitchOff
}

// Reading is one immutable environmental/status submission from a facility.
// ID is assigned by the store and increases with insert order, which breaks
// ties when two readings share an observed_at timestamp. ObservedAt is
// server-assigned at append time; device clocks are not trusted.
type Reading struct {
	ID                 int64       `json:"id" db:"id"`
	FacilityID         string      `json:"facility_id" db:"facility_id"`
	Temperature        *float64    `json:"temperature" db:"temperature"`
	Humidity           *float64    `json:"humidity" db:"humidity"`
	GasStatus          GasLevel    `json:"gas_status" db:"gas_status"`
	StatusLamp1        SwitchState `json:"status_lamp1" db:"status_lamp1"`
	StatusLamp2        SwitchState `json:"status_lamp2" db:"status_lamp2"`
	StatusViewer       SwitchState `json:"status_viewer" db:"status_viewer"`
	StatusWritingTable SwitchState `json:"status_writing_table" db:"status_writing_table"`
	StatusOpLamp       SwitchState `json:"status_op_lamp" db:"status_op_lamp"`
	ObservedAt         time.Time   `json:"observed_at" db:"observed_at"`
}

// ReadingSubmission is the wire shape devices POST to the submit endpoint.
// source_id is accepted as an alias of facility_id for older firmware.
// Numeric fields are passed through as given: the ingestion posture is
// deliberately permissive, implausible values are recorded, not rejected.
type ReadingSubmission struct {
	FacilityID         string      `json:"facility_id"`
	SourceID           string      `json:"source_id,omitempty"`
	Temperature        *float64    `json:"temperature"`
	Humidity           *float64    `json:"humidity"`
	GasStatus          GasLevel    `json:"gas_status"`
	StatusLamp1        SwitchState `json:"status_lamp1"`
	StatusLamp2        SwitchState `json:"status_lamp2"`
	StatusViewer       SwitchState `json:"status_viewer"`
	StatusWritingTable SwitchState `json:"status_writing_table"`
	StatusOpLamp       SwitchState `json:"status_op_lamp"`
}

// Normalize resolves the facility id alias and fills documented defaults:
// absent gas level becomes Low, absent or unrecognized switch states become
// OFF. Called once before the submission reaches the store.
func (s *ReadingSubmission) Normalize() {
	if s.FacilityID == "" {
		s.FacilityID = s.SourceID
	}
	if !s.GasStatus.Valid() {
		s.GasStatus = GasLow
	}
	s.StatusLamp1 = normalizeSwitch(s.StatusLamp1)
	s.StatusLamp2 = normalizeSwitch(s.StatusLamp2)
	s.StatusViewer = normalizeSwitch(s.StatusViewer)
	s.StatusWritingTable = normalizeSwitch(s.StatusWritingTable)
	s.StatusOpLamp = normalizeSwitch(s.StatusOpLamp)
}

// Reading converts a normalized submission into a Reading ready for append.
// The store assigns ID and ObservedAt.
func (s *ReadingSubmission) Reading() *Reading {
	return &Reading{
		FacilityID:         s.FacilityID,
		Temperature:        s.Temperature,
		Humidity:           s.Humidity,
		GasStatus:          s.GasStatus,
		StatusLamp1:        s.StatusLamp1,
		StatusLamp2:        s.StatusLamp2,
		StatusViewer:       s.StatusViewer,
		StatusWritingTable: s.StatusWritingTable,
		StatusOpLamp:       s.StatusOpLamp,
	}
}

func normalizeSwitch(s SwitchState) SwitchState {
	if s == SwitchOn {
		return SwitchOn
	}
	return SwitchOff
}

// StatisticsReport is the payload of the statistics endpoint: the resolved
// period name plus the aggregates for that window.
type StatisticsReport struct {
	Period     string             `json:"period"`
	Statistics *ReadingStatistics `json:"statistics"`
}

// ReadingStatistics holds aggregate values over a time window.
type ReadingStatistics struct {
	TotalRecords     int64    `json:"total_records" db:"total_records"`
	AvgTemperature   *float64 `json:"avg_temperature" db:"avg_temperature"`
	MinTemperature   *float64 `json:"min_temperature" db:"min_temperature"`
	MaxTemperature   *float64 `json:"max_temperature" db:"max_temperature"`
	AvgHumidity      *float64 `json:"avg_humidity" db:"avg_humidity"`
	MinHumidity      *float64 `json:"min_humidity" db:"min_humidity"`
	MaxHumidity      *float64 `json:"max_humidity" db:"max_humidity"`
	HighGasAlerts    int64    `json:"high_gas_alerts" db:"high_gas_alerts"`
	MediumGasAlerts  int64    `json:"medium_gas_alerts" db:"medium_gas_alerts"`
}
