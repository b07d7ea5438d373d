package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/http/response"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/service"
)

type TableHandler struct {
	Tables      repository.TableRepository
	TableStatus *service.TableStatus
}

func NewTableHandler(tables repository.TableRepository, tableStatus *service.TableStatus) *TableHandler {
	return &TableHandler{Tables: tables, TableStatus: tableStatus}
}

func (h *TableHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/{id}/status", h.setStatus)
	return r
}

func (h *TableHandler) list(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil || locationID <= 0 {
		response.BadRequest(w, "location_id must be a positive integer")
		return
	}

	tables, err := h.Tables.ListByLocation(r.Context(), locationID)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (h *TableHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Status    string `json:"status"`
		BookingID *int64 `json:"booking_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
		response.BadRequest(w, "status is required")
		return
	}

	if err := h.TableStatus.Set(r.Context(), id, domain.TableStatus(in.Status), in.BookingID); err != nil {
		response.FromDomain(w, err)
		return
	}

	table, err := h.Tables.GetByID(r.Context(), id)
	if err != nil || table == nil {
		response.InternalError(w, "internal error")
		return
	}
	response.WriteJSON(w, http.StatusOK, table)
}
