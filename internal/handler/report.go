package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/report"
)

type skuSummaryResponse struct {
	ProductID   int64           `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	TotalQty    int64           `json:"total_qty"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type summaryResponse struct {
	Orders         int             `json:"orders"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentCash    decimal.Decimal `json:"payment_cash"`
	PaymentNonCash decimal.Decimal `json:"payment_non_cash"`
	Receivable     decimal.Decimal `json:"receivable"`
}

type reportResponse struct {
	StartDate  string               `json:"start_date"`
	EndDate    string               `json:"end_date"`
	StoreID    int64                `json:"store_id"`
	Orders     []orderResponse      `json:"orders"`
	SkuSummary []skuSummaryResponse `json:"sku_summary"`
	Summary    summaryResponse      `json:"summary"`
}

// SalesReport handles GET /api/reports/sales?start_date=&end_date=&store_id=.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.reports.Generate(r.Context(), identity(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := reportResponse{
		StartDate:  q.Start.Format(dateLayout),
		EndDate:    q.End.Format(dateLayout),
		StoreID:    q.StoreID,
		Orders:     make([]orderResponse, len(rep.Orders)),
		SkuSummary: make([]skuSummaryResponse, len(rep.SKUs)),
		Summary: summaryResponse{
			Orders:         rep.Summary.Orders,
			GrandTotal:     rep.Summary.GrandTotal,
			PaymentCash:    rep.Summary.PaymentCash,
			PaymentNonCash: rep.Summary.PaymentNonCash,
			Receivable:     rep.Summary.Receivable,
		},
	}
	for i := range rep.Orders {
		resp.Orders[i] = toOrderResponse(&rep.Orders[i])
	}
	for i, s := range rep.SKUs {
		resp.SkuSummary[i] = skuSummaryResponse{
			ProductID:   s.ProductID,
			SKU:         s.SKU,
			ProductName: s.ProductName,
			TotalQty:    s.Quantity,
			TotalPrice:  s.Total,
		}
	}
	writeData(w, http.StatusOK, resp)
}

func parseReportQuery(r *http.Request) (report.Query, error) {
	v := r.URL.Query()
	var q report.Query
	var err error
	if q.Start, err = parseDate("start_date", v.Get("start_date")); err != nil {
		return q, err
	}
	if q.End, err = parseDate("end_date", v.Get("end_date")); err != nil {
		return q, err
	}
	if raw := v.Get("store_id"); raw != "" {
		q.StoreID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || q.StoreID < 0 {
			return q, apperr.Validationf("store_id", "must be a non-negative integer")
		}
	}
	return q, nil
}

func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.Validationf(field, "is required")
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperr.Validationf(field, "must be a date in %s format", dateLayout)
	}
	return t, nil
}
