package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/metrics"
	"rentdesk-backend/internal/service"
)

type OrderHandler struct {
	orders service.OrderService
}

type createOrderRequest struct {
	CustomerID    int32      `json:"customer_id"`
	SalesPersonID int32      `json:"sales_person_id"`
	StartDate     time.Time  `json:"start_date"`
	DueDate       time.Time  `json:"due_date"`
	SetupStart    *time.Time `json:"setup_start,omitempty"`
	CleanupEnd    *time.Time `json:"cleanup_end,omitempty"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	order := &domain.Order{
		CustomerID:    req.CustomerID,
		SalesPersonID: req.SalesPersonID,
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		SetupStart:    req.SetupStart,
		CleanupEnd:    req.CleanupEnd,
	}
	if err := h.orders.CreateOrder(r.Context(), order); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	var customerID int32
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		customerID = parseInt32(raw)
	}
	orders, total, err := h.orders.ListOrders(r.Context(), status, customerID, page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
	})
}

type addLineRequest struct {
	ItemID   int32 `json:"item_id"`
	Quantity int32 `json:"quantity"`
	Hours    int32 `json:"hours,omitempty"`
}

func (h *OrderHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	line, err := h.orders.AddLine(r.Context(), pathID(r, "id"), req.ItemID, req.Quantity, req.Hours)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, line)
}

type editLineRequest struct {
	Quantity         *int32 `json:"quantity,omitempty"`
	PricePerDayCents *int32 `json:"price_per_day_cents,omitempty"`
}

func (h *OrderHandler) EditLine(w http.ResponseWriter, r *http.Request) {
	var req editLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	line, err := h.orders.EditLine(r.Context(), pathID(r, "id"), pathID(r, "lineID"), req.Quantity, req.PricePerDayCents)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *OrderHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.RemoveLine(r.Context(), pathID(r, "id"), pathID(r, "lineID")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *OrderHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.OrderStatusReserved, h.orders.Reserve)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.OrderStatusCheckedOut, h.orders.Checkout)
}

func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.OrderStatusReturned, h.orders.Return)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.OrderStatusCancelled, h.orders.Cancel)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, target domain.OrderStatus, fn func(ctx context.Context, orderID int32) (*domain.Order, error)) {
	order, err := fn(r.Context(), pathID(r, "id"))
	metrics.ObserveOrderTransition(string(target), err == nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func parseInt32(raw string) int32 {
	v, _ := strconv.ParseInt(raw, 10, 32)
	return int32(v)
}
