package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type CatalogHandler struct {
	catalog      service.CatalogService
	availability service.AvailabilityService
}

type createItemRequest struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Kind            domain.ItemKind `json:"kind"`
	StartFeeCents   *int32          `json:"start_fee_cents,omitempty"`
	DailyRateCents  *int32          `json:"daily_rate_cents,omitempty"`
	HourlyRateCents *int32          `json:"hourly_rate_cents,omitempty"`
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	item := &domain.Item{
		SKU:             req.SKU,
		Name:            req.Name,
		Kind:            req.Kind,
		StartFeeCents:   req.StartFeeCents,
		DailyRateCents:  req.DailyRateCents,
		HourlyRateCents: req.HourlyRateCents,
	}
	if err := h.catalog.CreateItem(r.Context(), item); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.catalog.ListItems(r.Context(), page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

// GetAvailability answers how many units are free over
// ?start=...&end=... (RFC 3339), optionally excluding one order's own
// holds via ?exclude_order=.
func (h *CatalogHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("start must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("end must be an RFC 3339 timestamp"))
		return
	}
	var excludeOrderID int32
	if raw := r.URL.Query().Get("exclude_order"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorBody("exclude_order must be an integer"))
			return
		}
		excludeOrderID = int32(v)
	}

	av, err := h.availability.Availability(r.Context(), id, start, end, excludeOrderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, av)
}

type addComponentRequest struct {
	ChildID  int32 `json:"child_id"`
	Quantity int32 `json:"quantity"`
}

func (h *CatalogHandler) AddComponent(w http.ResponseWriter, r *http.Request) {
	parentID := pathID(r, "id")
	var req addComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := h.catalog.AddComponent(r.Context(), parentID, req.ChildID, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}
	item, err := h.catalog.GetItem(r.Context(), parentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	parentID := pathID(r, "id")
	childID := pathID(r, "childID")
	if err := h.catalog.RemoveComponent(r.Context(), parentID, childID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func pathID(r *http.Request, name string) int32 {
	// Routes constrain these variables to digits; a parse failure yields 0
	// and a NotFound from the service layer.
	v, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	return int32(v)
}

func pagination(r *http.Request) (int32, int32) {
	page := int64(1)
	pageSize := int64(50)
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v > 0 && v <= 200 {
			pageSize = v
		}
	}
	return int32(page), int32(pageSize)
}
