// Package handlers exposes the availability and continuation services over
// HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veldclinics/booking-platform/internal/availability"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

// SlotQuerier is the availability surface the handler needs.
type SlotQuerier interface {
	DaySlots(ctx context.Context, q availability.DaySlotsQuery) ([]availability.Slot, error)
	Heatmap(ctx context.Context, q availability.HeatmapQuery) ([]availability.HeatmapDay, error)
}

// AvailabilityHandler serves slot and heatmap queries.
type AvailabilityHandler struct {
	slots    SlotQuerier
	location *time.Location
	logger   *logging.Logger
}

// NewAvailabilityHandler creates a new availability HTTP handler. Dates in
// query strings are civil dates in the given location.
func NewAvailabilityHandler(slots SlotQuerier, location *time.Location, logger *logging.Logger) *AvailabilityHandler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{
		slots:    slots,
		location: location,
		logger:   logger,
	}
}

// Routes returns a chi router with the availability routes.
func (h *AvailabilityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/slots", h.GetSlots)
	r.Get("/heatmap", h.GetHeatmap)
	return r
}

// SlotsResponse is the payload of GET /availability/slots.
type SlotsResponse struct {
	Date  string              `json:"date"`
	Slots []availability.Slot `json:"slots"`
}

// GetSlots returns the bookable slots for one date.
// GET /availability/slots?service_id=&location_id=&date=&staff_id=&twin=&add_on_ids=
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	serviceID, err := requiredUUID(q.Get("service_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid service_id required")
		return
	}
	locationID, err := requiredUUID(q.Get("location_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid location_id required")
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, q.Get("date"), h.location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	staffID, err := optionalUUID(q.Get("staff_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff_id")
		return
	}
	addOnIDs, err := uuidList(q.Get("add_on_ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid add_on_ids")
		return
	}

	slots, err := h.slots.DaySlots(r.Context(), availability.DaySlotsQuery{
		ServiceID:  serviceID,
		LocationID: locationID,
		Date:       date,
		StaffID:    staffID,
		Twin:       q.Get("twin") == "true",
		AddOnIDs:   addOnIDs,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		Date:  date.Format(time.DateOnly),
		Slots: slots,
	})
}

// HeatmapResponse is the payload of GET /availability/heatmap.
type HeatmapResponse struct {
	Start string                    `json:"start"`
	End   string                    `json:"end"`
	Days  []availability.HeatmapDay `json:"days"`
}

// GetHeatmap returns per-day slot counts across a date range.
// GET /availability/heatmap?service_id=&location_id=&start=&end=&staff_id=
func (h *AvailabilityHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	serviceID, err := requiredUUID(q.Get("service_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid service_id required")
		return
	}
	locationID, err := requiredUUID(q.Get("location_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid location_id required")
		return
	}
	start, err := time.ParseInLocation(time.DateOnly, q.Get("start"), h.location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(time.DateOnly, q.Get("end"), h.location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	staffID, err := optionalUUID(q.Get("staff_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff_id")
		return
	}

	days, err := h.slots.Heatmap(r.Context(), availability.HeatmapQuery{
		ServiceID:  serviceID,
		LocationID: locationID,
		Start:      start,
		End:        end,
		StaffID:    staffID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, HeatmapResponse{
		Start: start.Format(time.DateOnly),
		End:   end.Format(time.DateOnly),
		Days:  days,
	})
}

func (h *AvailabilityHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid date range")
	case errors.Is(err, availability.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, availability.ErrUpstreamUnavailable):
		h.logger.Error("availability query failed upstream", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		h.logger.Error("availability query failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func requiredUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidList(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
