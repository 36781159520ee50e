package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/order"
)

const dateLayout = time.DateOnly

type createOrderRequest struct {
	OrderNumber    string          `json:"order_number" validate:"required,max=64"`
	StoreID        int64           `json:"store_id" validate:"gt=0"`
	Date           string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentCash    decimal.Decimal `json:"payment_cash"`
	PaymentNonCash decimal.Decimal `json:"payment_non_cash"`
	CustomerID     *int64          `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
}

type orderLineResponse struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku"`
	Qty            int             `json:"qty"`
	BasePrice      decimal.Decimal `json:"base_price"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	OrderNumber    string              `json:"order_number"`
	UserID         int64               `json:"user_id"`
	UserInitial    string              `json:"user_initial"`
	StoreID        int64               `json:"store_id"`
	StoreInitial   string              `json:"store_initial"`
	CustomerID     *int64              `json:"customer_id"`
	Date           string              `json:"date"`
	GrandTotal     decimal.Decimal     `json:"grand_total"`
	PaymentCash    decimal.Decimal     `json:"payment_cash"`
	PaymentNonCash decimal.Decimal     `json:"payment_non_cash"`
	Receivable     decimal.Decimal     `json:"receivable"`
	CreatedAt      time.Time           `json:"created_at"`
	Lines          []orderLineResponse `json:"lines"`
}

func toOrderResponse(o *order.WithLines) orderResponse {
	lines := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = orderLineResponse{
			ID:             l.ID,
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			SKU:            l.SKU,
			Qty:            l.Quantity,
			BasePrice:      l.BasePrice,
			DiscountType:   string(l.DiscountType),
			DiscountValue:  l.DiscountValue,
			DiscountAmount: l.DiscountAmount,
			SalePrice:      l.SalePrice,
			TotalPrice:     l.TotalPrice,
		}
	}
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		UserInitial:    o.UserInitial,
		StoreID:        o.StoreID,
		StoreInitial:   o.StoreInitial,
		CustomerID:     o.CustomerID,
		Date:           o.Date.Format(dateLayout),
		GrandTotal:     o.GrandTotal,
		PaymentCash:    o.PaymentCash,
		PaymentNonCash: o.PaymentNonCash,
		Receivable:     o.Receivable,
		CreatedAt:      o.CreatedAt,
		Lines:          lines,
	}
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := order.CreateRequest{
		OrderNumber:    req.OrderNumber,
		StoreID:        req.StoreID,
		PaymentCash:    req.PaymentCash,
		PaymentNonCash: req.PaymentNonCash,
		CustomerID:     req.CustomerID,
	}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, r, apperr.Validationf("date", "must be a date in %s format", dateLayout))
			return
		}
		in.Date = &d
	}

	o, err := h.orders.Create(r.Context(), identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), identity(r), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(o))
}
