package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/order"
)

// attachLines groups lines under their orders, keeping the order of both.
func attachLines(headers []order.Header, lines []order.LineView) []order.WithLines {
	byOrder := make(map[int64][]order.LineView, len(headers))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	out := make([]order.WithLines, len(headers))
	for i, h := range headers {
		ls := byOrder[h.ID]
		if ls == nil {
			ls = []order.LineView{}
		}
		out[i] = order.WithLines{Header: h, Lines: ls}
	}
	return out
}

// SummarizeSKUs folds order lines into per-product totals.
func SummarizeSKUs(orders []order.WithLines) []SkuSummary {
	idx := make(map[int64]int)
	out := []SkuSummary{}
	for _, o := range orders {
		for _, l := range o.Lines {
			i, ok := idx[l.ProductID]
			if !ok {
				i = len(out)
				idx[l.ProductID] = i
				out = append(out, SkuSummary{
					ProductID:   l.ProductID,
					SKU:         l.SKU,
					ProductName: l.ProductName,
					Total:       decimal.Zero,
				})
			}
			out[i].Quantity += int64(l.Quantity)
			out[i].Total = out[i].Total.Add(l.TotalPrice)
		}
	}
	slices.SortFunc(out, func(a, b SkuSummary) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out
}

// Summarize totals the payments of the given orders.
func Summarize(orders []order.WithLines) Summary {
	s := Summary{
		Orders:         len(orders),
		GrandTotal:     decimal.Zero,
		PaymentCash:    decimal.Zero,
		PaymentNonCash: decimal.Zero,
		Receivable:     decimal.Zero,
	}
	for _, o := range orders {
		s.GrandTotal = s.GrandTotal.Add(o.GrandTotal)
		s.PaymentCash = s.PaymentCash.Add(o.PaymentCash)
		s.PaymentNonCash = s.PaymentNonCash.Add(o.PaymentNonCash)
		s.Receivable = s.Receivable.Add(o.Receivable)
	}
	return s
}
