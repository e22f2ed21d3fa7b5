package http

import (
	"encoding/json"
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type StockHandler struct {
	stock service.StockService
}

func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	itemID := pathID(r, "id")
	onHand, err := h.stock.OnHand(r.Context(), itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, pageSize := pagination(r)
	movements, total, err := h.stock.ListMovements(r.Context(), itemID, page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"item_id":   itemID,
		"on_hand":   onHand,
		"movements": movements,
		"total":     total,
	})
}

type adjustStockRequest struct {
	Delta  int32                 `json:"delta"`
	Reason domain.MovementReason `json:"reason"`
	Notes  string                `json:"notes"`
}

func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	itemID := pathID(r, "id")
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	mv, err := h.stock.AdjustStock(r.Context(), itemID, req.Delta, req.Reason, actorFrom(r), req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, mv)
}

type setStockRequest struct {
	Quantity int32  `json:"quantity"`
	Notes    string `json:"notes"`
}

func (h *StockHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	itemID := pathID(r, "id")
	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	mv, err := h.stock.SetStock(r.Context(), itemID, req.Quantity, actorFrom(r), req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, mv)
}

// actorFrom derives the ledger actor from the authenticated token.
func actorFrom(r *http.Request) string {
	if claims := Claims(r.Context()); claims != nil && claims.Email != "" {
		return claims.Email
	}
	return "unknown"
}
