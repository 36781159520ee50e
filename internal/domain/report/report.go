// Package report builds sales reports from committed orders.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/order"
)

// Query selects orders dated within [Start, End]. StoreID 0 means every store
// of the caller's company.
type Query struct {
	Start   time.Time
	End     time.Time
	StoreID int64
}

// Filter is a Query bound to a company.
type Filter struct {
	CompanyID int64
	Start     time.Time
	End       time.Time
	StoreID   int64
}

// SkuSummary is the rollup of one product over the matched orders.
type SkuSummary struct {
	ProductID   int64
	SKU         string
	ProductName string
	Quantity    int64
	Total       decimal.Decimal
}

// Summary holds the totals over the matched orders.
type Summary struct {
	Orders         int
	GrandTotal     decimal.Decimal
	PaymentCash    decimal.Decimal
	PaymentNonCash decimal.Decimal
	Receivable     decimal.Decimal
}

// Report is the result of Generate. Orders are newest first and SKUs are by
// quantity sold, highest first.
type Report struct {
	Query   Query
	Orders  []order.WithLines
	SKUs    []SkuSummary
	Summary Summary
}

// Repository reads orders for reporting.
type Repository interface {
	// ListOrders returns matching order headers ordered by date and ID,
	// newest first.
	ListOrders(ctx context.Context, f Filter) ([]order.Header, error)
	// ListLines returns the lines of the given orders in one round trip.
	ListLines(ctx context.Context, orderIDs []int64) ([]order.LineView, error)
}
