// Package discount computes per-line discounts for cart items.
//
// A discount value is always a decimal. For Fixed it is a currency amount at
// the same 2-place scale as the base price; for Percentage it is percent
// points in [0, 100].
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/apperr"
)

// Type is the discount mode of a line.
type Type string

const (
	Fixed      Type = "fixed"
	Percentage Type = "percentage"
)

// Scale is the number of decimal places every money amount carries.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// CheckAmount rejects a negative amount or one finer than Scale places.
// Amounts are stored as NUMERIC(14,2); rounding them on the way in would
// break sale = base - discount and the receivable totals.
func CheckAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperr.Validationf(field, "must not be negative, got %s", d)
	}
	if !d.Equal(d.Truncate(Scale)) {
		return apperr.Validationf(field, "must have at most %d decimal places, got %s", Scale, d)
	}
	return nil
}

// ParseType maps wire input to a Type. Empty input defaults to Fixed.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "", Fixed:
		return Fixed, nil
	case Percentage:
		return Percentage, nil
	default:
		return "", apperr.Validationf("discount_type", "unknown discount type %q", s)
	}
}

// Result is the derived pricing of a single unit.
type Result struct {
	Amount    decimal.Decimal
	SalePrice decimal.Decimal
}

// Compute derives the discount amount and sale price for one unit priced at
// base. The amount never exceeds base, so SalePrice is never negative.
func Compute(base decimal.Decimal, typ Type, value decimal.Decimal) (Result, error) {
	if err := CheckAmount("base_price", base); err != nil {
		return Result{}, err
	}
	if err := CheckAmount("discount_value", value); err != nil {
		return Result{}, err
	}

	var amount decimal.Decimal
	switch typ {
	case Fixed:
		amount = decimal.Min(value, base)
	case Percentage:
		if value.GreaterThan(hundred) {
			return Result{}, apperr.Validationf("discount_value", "percentage must be at most 100, got %s", value)
		}
		amount = decimal.Min(base.Mul(value).Div(hundred).Round(Scale), base)
	default:
		return Result{}, apperr.Validationf("discount_type", "unknown discount type %q", string(typ))
	}

	return Result{
		Amount:    amount,
		SalePrice: base.Sub(amount),
	}, nil
}

// Resolve is Compute with an optional caller-supplied sale price. An override
// is trusted as-is once it lies within [0, base]; the amount is then derived
// from it so that SalePrice = base - Amount still holds.
func Resolve(base decimal.Decimal, typ Type, value decimal.Decimal, salePrice *decimal.Decimal) (Result, error) {
	if salePrice == nil {
		return Compute(base, typ, value)
	}
	if err := CheckAmount("base_price", base); err != nil {
		return Result{}, err
	}
	sp := *salePrice
	if err := CheckAmount("sale_price", sp); err != nil {
		return Result{}, err
	}
	if sp.GreaterThan(base) {
		return Result{}, apperr.Validationf("sale_price", "must be between 0 and %s, got %s", base, sp)
	}
	return Result{
		Amount:    base.Sub(sp),
		SalePrice: sp,
	}, nil
}

// LineTotal is the extended price of qty units at salePrice.
func LineTotal(salePrice decimal.Decimal, qty int) decimal.Decimal {
	return salePrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
