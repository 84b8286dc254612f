// FilePath: api/resources/api.resource.facilities.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/hubservice"
	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// FacilityHandlers encapsulates the facility registry HTTP handlers
type FacilityHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Create a new facility
// @Description Register a facility in the monitoring registry
// @Tags facilities
// @Accept json
// @Produce json
// @Param facility body models.Facility true "Facility details"
// @Success 201 {object} models.Facility
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /facilities [post]
// @Security BearerAuth
func (h *FacilityHandlers) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var facility models.Facility
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&facility); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.CreateFacility(r.Context(), &facility); err != nil {
		respondWithServiceError(w, requestID, err, "failed to create facility")
		return
	}

	respondWithJSON(w, http.StatusCreated, facility)
}

// @Summary Get a facility by ID
// @Description Get detailed information about a specific facility
// @Tags facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} models.Facility
// @Failure 404 {object} errors.APIError
// @Router /facilities/{id} [get]
// @Security BearerAuth
func (h *FacilityHandlers) GetFacility(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	facility, err := h.hubservice.GetFacility(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to get facility")
		return
	}

	respondWithJSON(w, http.StatusOK, facility)
}

// @Summary List facilities
// @Description Get a paginated list of registered facilities
// @Tags facilities
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Facility
// @Router /facilities [get]
// @Security BearerAuth
func (h *FacilityHandlers) ListFacilities(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	facilities, err := h.hubservice.ListFacilities(r.Context(), offset, limit)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to list facilities")
		return
	}

	respondWithJSON(w, http.StatusOK, facilities)
}

// @Summary Update a facility
// @Description Update a facility's name, location or active flag
// @Tags facilities
// @Accept json
// @Produce json
// @Param id path string true "Facility ID"
// @Param facility body models.Facility true "Updated facility details"
// @Success 200 {object} models.Facility
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /facilities/{id} [put]
// @Security BearerAuth
func (h *FacilityHandlers) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var facility models.Facility
	if err := json.NewDecoder(r.Body).Decode(&facility); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	facility.ID = id
	if err := h.hubservice.UpdateFacility(r.Context(), &facility); err != nil {
		respondWithServiceError(w, requestID, err, "failed to update facility")
		return
	}

	respondWithJSON(w, http.StatusOK, facility)
}

// @Summary Delete a facility
// @Description Remove a facility from the registry; its readings are kept
// @Tags facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /facilities/{id} [delete]
// @Security BearerAuth
func (h *FacilityHandlers) DeleteFacility(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	if err := h.hubservice.DeleteFacility(r.Context(), id); err != nil {
		respondWithServiceError(w, requestID, err, "failed to delete facility")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Get facility connection status
// @Description Derived online/warning/offline state for one facility
// @Tags facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.APIError
// @Router /facilities/{id}/status [get]
// @Security BearerAuth
func (h *FacilityHandlers) GetFacilityStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	status, err := h.hubservice.StatusOf(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to get facility status")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]models.ConnectionStatus{"status": status})
}

func getPaginationParams(r *http.Request) (offset, limit int) {
	query := r.URL.Query()
	offset, _ = strconv.Atoi(query.Get("offset"))
	limit, _ = strconv.Atoi(query.Get("limit"))

	if limit <= 0 || limit > 100 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	return offset, limit
}
