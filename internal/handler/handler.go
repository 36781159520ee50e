// Package handler exposes the sales core over JSON HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
)

// Handler adapts HTTP requests to the cart, order and report services.
type Handler struct {
	carts   *cart.Service
	orders  *order.Service
	reports *report.Service
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(
	carts *cart.Service,
	orders *order.Service,
	reports *report.Service,
) *Handler {
	return &Handler{
		carts:   carts,
		orders:  orders,
		reports: reports,
	}
}

// Register adds the API routes to mux, each behind sec.
func (h *Handler) Register(mux *http.ServeMux, sec *SecurityHandler) {
	routes := map[string]http.HandlerFunc{
		"POST /api/cart":         h.AddCartLine,
		"GET /api/cart":          h.ListCart,
		"DELETE /api/cart":       h.ClearCart,
		"PATCH /api/cart/{id}":   h.UpdateCartLine,
		"DELETE /api/cart/{id}":  h.DeleteCartLine,
		"POST /api/orders":       h.CreateOrder,
		"GET /api/orders/{id}":   h.GetOrder,
		"GET /api/reports/sales": h.SalesReport,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, sec.Authenticate(fn))
	}
}

type dataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already sent; an encode error means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataResponse{Data: v})
}
