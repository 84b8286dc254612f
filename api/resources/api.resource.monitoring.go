// FilePath: api/resources/api.resource.monitoring.go
package resources

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/hubservice"
	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// MonitoringHandlers encapsulates the sensor-data HTTP handlers
type MonitoringHandlers struct {
	hubservice *hubservice.HubService
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(parsed)
	})
	return d
}()

// submitResponse is the envelope returned to devices on successful ingestion.
type submitResponse struct {
	Status    string          `json:"status"`
	Data      *models.Reading `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// @Summary Submit a sensor reading
// @Description Ingest one reading from a facility's sensor unit
// @Tags monitoring
// @Accept json
// @Produce json
// @Param reading body models.ReadingSubmission true "Reading payload"
// @Success 201 {object} submitResponse
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /monitoring/submit [post]
func (h *MonitoringHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var submission models.ReadingSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	reading, err := h.hubservice.SubmitReading(r.Context(), &submission)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to store reading")
		return
	}

	respondWithJSON(w, http.StatusCreated, submitResponse{
		Status:    "success",
		Data:      reading,
		Timestamp: time.Now().UTC(),
	})
}

// @Summary Latest readings for all facilities
// @Description Get the most recent reading per facility
// @Tags monitoring
// @Produce json
// @Param facility_ids query string false "Comma-separated facility IDs; defaults to all active"
// @Success 200 {array} models.Reading
// @Router /monitoring/latest [get]
func (h *MonitoringHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var facilityIDs []string
	if csv := r.URL.Query().Get("facility_ids"); csv != "" {
		for _, id := range strings.Split(csv, ",") {
			if id = strings.TrimSpace(id); id != "" {
				facilityIDs = append(facilityIDs, id)
			}
		}
	}

	readings, err := h.hubservice.LatestForAll(r.Context(), facilityIDs)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to load latest readings")
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Latest reading for one facility
// @Description Get the most recent reading of a specific facility
// @Tags monitoring
// @Produce json
// @Param facilityId path string true "Facility ID"
// @Success 200 {object} models.Reading
// @Failure 404 {object} errors.APIError
// @Router /monitoring/latest/{facilityId} [get]
func (h *MonitoringHandlers) LatestFor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	facilityID := vars["facilityId"]
	requestID := nuts.NID("req", 12)

	reading, err := h.hubservice.LatestFor(r.Context(), facilityID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to load latest reading")
		return
	}

	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Reading history
// @Description Get a paginated page of historical readings
// @Tags monitoring
// @Produce json
// @Param facility_id query string false "Filter by facility"
// @Param start query string false "RFC3339 window start"
// @Param end query string false "RFC3339 window end"
// @Param limit query int false "Page size (max 500)"
// @Param page query int false "Page number"
// @Param order query string false "asc or desc"
// @Success 200 {object} models.ReadingPage
// @Failure 400 {object} errors.APIError
// @Router /monitoring/history [get]
func (h *MonitoringHandlers) History(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.HistoryFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	page, err := h.hubservice.History(r.Context(), filters)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to load history")
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// @Summary Facility status summary
// @Description Derived connection status per facility plus aggregate counts
// @Tags monitoring
// @Produce json
// @Success 200 {object} models.StatusReport
// @Router /monitoring/status [get]
func (h *MonitoringHandlers) Status(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	report, err := h.hubservice.StatusSummary(r.Context())
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to build status summary")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// @Summary Reading statistics
// @Description Aggregates over a named period (1h, 24h, 7d, 30d)
// @Tags monitoring
// @Produce json
// @Param facility_id query string false "Filter by facility"
// @Param period query string false "1h, 24h, 7d or 30d (default 24h)"
// @Success 200 {object} models.StatisticsReport
// @Router /monitoring/statistics [get]
func (h *MonitoringHandlers) Statistics(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	query := r.URL.Query()

	period, stats, err := h.hubservice.Statistics(r.Context(), query.Get("facility_id"), query.Get("period"))
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to compute statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, models.StatisticsReport{
		Period:     period,
		Statistics: stats,
	})
}

// @Summary Simulate a reading
// @Description Generate and ingest one synthetic reading for a facility
// @Tags monitoring
// @Accept json
// @Produce json
// @Param request body object true "JSON with facility_id"
// @Success 201 {object} submitResponse
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /monitoring/simulate [post]
func (h *MonitoringHandlers) Simulate(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var request struct {
		FacilityID string `json:"facility_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if request.FacilityID == "" {
		respondWithError(w, errors.NewValidationError("facility_id is required", nil).WithRequestID(requestID))
		return
	}

	reading, err := h.hubservice.Simulate(r.Context(), request.FacilityID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to simulate reading")
		return
	}

	respondWithJSON(w, http.StatusCreated, submitResponse{
		Status:    "success",
		Data:      reading,
		Timestamp: time.Now().UTC(),
	})
}

// Helper functions

// respondWithServiceError passes APIError codes through and wraps anything
// else as a 500.
func respondWithServiceError(w http.ResponseWriter, requestID string, err error, fallback string) {
	if apiErr, ok := err.(*errors.APIError); ok {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	respondWithError(w, errors.NewInternalError(fallback, err).WithRequestID(requestID))
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
