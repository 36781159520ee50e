// Package cart manages the per-user, per-store staging area of sale lines.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/discount"
)

// Line is one product staged in a user's cart at a store. SalePrice always
// equals BasePrice - DiscountAmount and neither is negative.
type Line struct {
	ID             int64
	UserID         int64
	StoreID        int64
	ProductID      int64
	BasePrice      decimal.Decimal
	Quantity       int
	DiscountType   discount.Type
	DiscountValue  decimal.Decimal
	DiscountAmount decimal.Decimal
	SalePrice      decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Total is the extended sale price of the line.
func (l *Line) Total() decimal.Decimal {
	return discount.LineTotal(l.SalePrice, l.Quantity)
}

// LineView is a Line joined with catalog details and the store's on-hand
// stock for the product (zero when the store has no stock row).
type LineView struct {
	Line
	ProductName string
	SKU         string
	UnitName    string
	Stock       int
}

// NewLine is the input for adding a product to the cart. A non-nil SalePrice
// overrides the computed discount.
type NewLine struct {
	StoreID       int64
	ProductID     int64
	BasePrice     decimal.Decimal
	Quantity      int
	DiscountType  string
	DiscountValue decimal.Decimal
	SalePrice     *decimal.Decimal
}

// Update carries the fields of a partial line update. Nil fields are left
// unchanged.
type Update struct {
	BasePrice     *decimal.Decimal
	Quantity      *int
	DiscountType  *string
	DiscountValue *decimal.Decimal
}

// Repository defines persistence for cart lines. Every method is scoped by
// user; lines of other users behave as absent.
type Repository interface {
	// InCatalog reports whether the store and the product belong to
	// companyID.
	InCatalog(ctx context.Context, companyID, storeID, productID int64) (storeOK, productOK bool, err error)
	// Insert stores l and fills in its ID.
	Insert(ctx context.Context, l *Line) error
	// ListByStore returns the user's lines for a store, newest first.
	ListByStore(ctx context.Context, userID, storeID int64) ([]LineView, error)
	// Get returns a NotFound error when the line does not exist.
	Get(ctx context.Context, userID, lineID int64) (*Line, error)
	// Update overwrites the mutable fields of an existing line.
	Update(ctx context.Context, l *Line) error
	Delete(ctx context.Context, userID, lineID int64) (bool, error)
	Clear(ctx context.Context, userID, storeID int64) (bool, error)
}
