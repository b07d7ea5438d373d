package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/http/response"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/service"
)

type BookingHandler struct {
	Bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// PublicRoutes carries the customer-facing endpoints: creating a booking
// and resolving an emailed confirmation link.
func (h *BookingHandler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/confirm", h.confirmByToken)
	return r
}

// StaffRoutes carries the operational endpoints used from the back office.
func (h *BookingHandler) StaffRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Post("/{id}/confirm", h.confirm)
	r.Post("/{id}/cancel", h.cancel)
	r.Post("/{id}/complete", h.complete)
	r.Post("/{id}/no-show", h.noShow)
	r.Post("/{id}/checkin", h.checkin)
	r.Post("/{id}/checkout", h.checkout)
	return r
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	booking, err := h.Bookings.Create(r.Context(), &req)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) confirmByToken(w http.ResponseWriter, r *http.Request) {
	booking, err := h.Bookings.ConfirmByToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.BookingFilter{
		Source: q.Get("source"),
		Search: q.Get("q"),
	}
	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseBookingStatus(v)
		if !ok {
			response.BadRequest(w, "unknown booking status")
			return
		}
		filter.Status = status
	}
	if v := q.Get("location_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "location_id must be an integer")
			return
		}
		filter.LocationID = id
	}
	for name, dst := range map[string]*time.Time{
		"date": &filter.Date, "date_from": &filter.DateFrom, "date_to": &filter.DateTo,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(w, name+" must be a YYYY-MM-DD date")
			return
		}
		*dst = parsed
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	bookings, err := h.Bookings.List(r.Context(), filter)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	booking, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	booking, err := h.Bookings.Confirm(r.Context(), id)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Bookings.Cancel)
}

func (h *BookingHandler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Bookings.Complete)
}

func (h *BookingHandler) noShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Bookings.MarkNoShow)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		response.FromDomain(w, err)
		return
	}
	booking, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) checkin(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, h.Bookings.MarkCheckin)
}

func (h *BookingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, h.Bookings.MarkCheckout)
}

func (h *BookingHandler) attendance(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, at *time.Time) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var at *time.Time
	if r.ContentLength > 0 {
		var in struct {
			At *time.Time `json:"at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		at = in.At
	}

	if err := fn(r.Context(), id, at); err != nil {
		response.FromDomain(w, err)
		return
	}
	booking, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) stats(w http.ResponseWriter, r *http.Request) {
	var locationID int64
	if v := r.URL.Query().Get("location_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "location_id must be an integer")
			return
		}
		locationID = id
	}
	stats, err := h.Bookings.Stats(r.Context(), locationID)
	if err != nil {
		response.FromDomain(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
