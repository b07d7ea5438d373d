package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newit5s/tablebook/internal/http/response"
	"github.com/newit5s/tablebook/internal/schedule"
	"github.com/newit5s/tablebook/internal/service"
)

type AvailabilityHandler struct {
	Availability *service.Availability
	Calc         *schedule.Calculator
}

func NewAvailabilityHandler(availability *service.Availability, calc *schedule.Calculator) *AvailabilityHandler {
	return &AvailabilityHandler{Availability: availability, Calc: calc}
}

// PublicRoutes exposes the slot check customers hit from the booking form.
func (h *AvailabilityHandler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/check", h.check)
	r.Get("/suggestions", h.suggestions)
	return r
}

// StaffRoutes exposes the per-table occupancy timeline.
func (h *AvailabilityHandler) StaffRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/timeline", h.timeline)
	return r
}

func (h *AvailabilityHandler) slotRequest(w http.ResponseWriter, r *http.Request) (service.SlotRequest, bool) {
	q := r.URL.Query()

	locationID, err := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if err != nil || locationID <= 0 {
		response.BadRequest(w, "location_id must be a positive integer")
		return service.SlotRequest{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", q.Get("date"), h.Calc.Location())
	if err != nil {
		response.BadRequest(w, "date must be a YYYY-MM-DD date")
		return service.SlotRequest{}, false
	}
	guests, err := strconv.Atoi(q.Get("guests"))
	if err != nil || guests <= 0 {
		response.BadRequest(w, "guests must be a positive integer")
		return service.SlotRequest{}, false
	}

	req := service.SlotRequest{
		LocationID:   locationID,
		Date:         date,
		CheckinTime:  q.Get("checkin_time"),
		CheckoutTime: q.Get("checkout_time"),
		GuestCount:   guests,
	}
	if v := q.Get("exclude_booking_id"); v != "" {
		req.ExcludeBookingID, _ = strconv.ParseInt(v, 10, 64)
	}
	return req, true
}

func (h *AvailabilityHandler) check(w http.ResponseWriter, r *http.Request) {
	req, ok := h.slotRequest(w, r)
	if !ok {
		return
	}

	available, err := h.Availability.IsTimeSlotAvailable(r.Context(), req)
	if err != nil {
		response.FromDomain(w, err)
		return
	}

	out := map[string]any{"available": available}
	if available {
		count, err := h.Availability.AvailableTableCount(r.Context(), req)
		if err != nil {
			response.FromDomain(w, err)
			return
		}
		out["table_count"] = count
	} else {
		suggestions, err := h.Availability.SuggestTimeSlots(r.Context(), req.LocationID, req.Date, req.CheckinTime, req.GuestCount, 180)
		if err != nil {
			response.FromDomain(w, err)
			return
		}
		if suggestions == nil {
			suggestions = []string{}
		}
		out["suggestions"] = suggestions
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AvailabilityHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.slotRequest(w, r)
	if !ok {
		return
	}

	rangeMinutes := 180
	if v := r.URL.Query().Get("range"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "range must be a positive number of minutes")
			return
		}
		rangeMinutes = parsed
	}

	suggestions, err := h.Availability.SuggestTimeSlots(r.Context(), req.LocationID, req.Date, req.CheckinTime, req.GuestCount, rangeMinutes)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *AvailabilityHandler) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID, err := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if err != nil || locationID <= 0 {
		response.BadRequest(w, "location_id must be a positive integer")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", q.Get("date"), h.Calc.Location())
	if err != nil {
		response.BadRequest(w, "date must be a YYYY-MM-DD date")
		return
	}

	data, err := h.Availability.GetTimelineData(r.Context(), locationID, date)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, data)
}
