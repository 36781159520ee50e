package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/cart"
)

type addCartLineRequest struct {
	StoreID       int64            `json:"store_id" validate:"gt=0"`
	ProductID     int64            `json:"product_id" validate:"gt=0"`
	BasePrice     decimal.Decimal  `json:"base_price"`
	Qty           int              `json:"qty" validate:"gt=0"`
	DiscountType  string           `json:"discount_type" validate:"omitempty,oneof=fixed percentage"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
}

type updateCartLineRequest struct {
	BasePrice     *decimal.Decimal `json:"base_price,omitempty"`
	Qty           *int             `json:"qty,omitempty" validate:"omitempty,gt=0"`
	DiscountType  *string          `json:"discount_type,omitempty" validate:"omitempty,oneof=fixed percentage"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
}

type cartLineResponse struct {
	ID             int64           `json:"id"`
	StoreID        int64           `json:"store_id"`
	ProductID      int64           `json:"product_id"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Qty            int             `json:"qty"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type cartLineViewResponse struct {
	cartLineResponse
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	UnitName    string `json:"unit_name"`
	Stock       int    `json:"stock"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

func toCartLineResponse(l *cart.Line) cartLineResponse {
	return cartLineResponse{
		ID:             l.ID,
		StoreID:        l.StoreID,
		ProductID:      l.ProductID,
		BasePrice:      l.BasePrice,
		Qty:            l.Quantity,
		DiscountType:   string(l.DiscountType),
		DiscountValue:  l.DiscountValue,
		DiscountAmount: l.DiscountAmount,
		SalePrice:      l.SalePrice,
		TotalPrice:     l.Total(),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// AddCartLine handles POST /api/cart.
func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var req addCartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := h.carts.Add(r.Context(), identity(r), cart.NewLine{
		StoreID:       req.StoreID,
		ProductID:     req.ProductID,
		BasePrice:     req.BasePrice,
		Quantity:      req.Qty,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		SalePrice:     req.SalePrice,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCartLineResponse(l))
}

// ListCart handles GET /api/cart?store_id=N.
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryID(r, "store_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.carts.List(r.Context(), identity(r), storeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]cartLineViewResponse, len(views))
	for i := range views {
		out[i] = cartLineViewResponse{
			cartLineResponse: toCartLineResponse(&views[i].Line),
			ProductName:      views[i].ProductName,
			SKU:              views[i].SKU,
			UnitName:         views[i].UnitName,
			Stock:            views[i].Stock,
		}
	}
	writeData(w, http.StatusOK, out)
}

// UpdateCartLine handles PATCH /api/cart/{id}.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := h.carts.Update(r.Context(), identity(r), lineID, cart.Update{
		BasePrice:     req.BasePrice,
		Quantity:      req.Qty,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartLineResponse(l))
}

// DeleteCartLine handles DELETE /api/cart/{id}.
func (h *Handler) DeleteCartLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	deleted, err := h.carts.Delete(r.Context(), identity(r), lineID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, deletedResponse{Deleted: deleted})
}

// ClearCart handles DELETE /api/cart?store_id=N.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryID(r, "store_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cleared, err := h.carts.Clear(r.Context(), identity(r), storeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, deletedResponse{Deleted: cleared})
}
