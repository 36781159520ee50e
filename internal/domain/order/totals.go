package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/cart"
)

// GrandTotal sums the extended sale price of every line.
func GrandTotal(lines []cart.Line) decimal.Decimal {
	sum := decimal.Zero
	for i := range lines {
		sum = sum.Add(lines[i].Total())
	}
	return sum.Round(2)
}

// Receivable is the unpaid remainder, floored at zero.
func Receivable(grandTotal, cash, nonCash decimal.Decimal) decimal.Decimal {
	r := grandTotal.Sub(cash).Sub(nonCash)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r.Round(2)
}

// snapshotLines copies cart lines into order lines for orderID.
func snapshotLines(orderID int64, lines []cart.Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			OrderID:        orderID,
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			BasePrice:      l.BasePrice,
			DiscountType:   l.DiscountType,
			DiscountValue:  l.DiscountValue,
			DiscountAmount: l.DiscountAmount,
			SalePrice:      l.SalePrice,
			TotalPrice:     l.Total(),
		}
	}
	return out
}
