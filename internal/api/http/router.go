package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/metrics"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"
)

// Handlers bundles the services the API exposes.
type Handlers struct {
	Catalog      service.CatalogService
	Stock        service.StockService
	Availability service.AvailabilityService
	Orders       service.OrderService
}

// NewRouter builds the /api/v1 router. /healthz and /metrics bypass
// authentication; everything else requires a valid bearer token.
func NewRouter(h *Handlers, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, MetricsMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))

	catalog := &CatalogHandler{catalog: h.Catalog, availability: h.Availability}
	api.HandleFunc("/items", catalog.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items", catalog.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id:[0-9]+}", catalog.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}/availability", catalog.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}/components", catalog.AddComponent).Methods(http.MethodPost)
	api.HandleFunc("/items/{id:[0-9]+}/components/{childID:[0-9]+}", catalog.RemoveComponent).Methods(http.MethodDelete)

	stock := &StockHandler{stock: h.Stock}
	api.HandleFunc("/items/{id:[0-9]+}/stock", stock.GetStock).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}/stock", stock.SetStock).Methods(http.MethodPut)
	api.HandleFunc("/items/{id:[0-9]+}/stock/adjustments", stock.AdjustStock).Methods(http.MethodPost)

	orders := &OrderHandler{orders: h.Orders}
	api.HandleFunc("/orders", orders.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", orders.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}", orders.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}/lines", orders.AddLine).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}/lines/{lineID:[0-9]+}", orders.EditLine).Methods(http.MethodPatch)
	api.HandleFunc("/orders/{id:[0-9]+}/lines/{lineID:[0-9]+}", orders.RemoveLine).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id:[0-9]+}/reserve", orders.Reserve).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}/checkout", orders.Checkout).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}/return", orders.Return).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}/cancel", orders.Cancel).Methods(http.MethodPost)

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
