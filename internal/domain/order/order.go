// Package order converts carts into immutable sales orders and reads them
// back.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/discount"
)

// Order is a committed sale. Receivable is always
// max(0, GrandTotal - PaymentCash - PaymentNonCash).
type Order struct {
	ID             int64
	OrderNumber    string
	UserID         int64
	StoreID        int64
	CustomerID     *int64
	Date           time.Time
	GrandTotal     decimal.Decimal
	PaymentCash    decimal.Decimal
	PaymentNonCash decimal.Decimal
	Receivable     decimal.Decimal
	CreatedAt      time.Time
}

// Line is the snapshot of one consumed cart line.
type Line struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	Quantity       int
	BasePrice      decimal.Decimal
	DiscountType   discount.Type
	DiscountValue  decimal.Decimal
	DiscountAmount decimal.Decimal
	SalePrice      decimal.Decimal
	TotalPrice     decimal.Decimal
}

// LineView is a Line with the product's current name and SKU.
type LineView struct {
	Line
	ProductName string
	SKU         string
}

// Header is an Order with the initials of its creator and store.
type Header struct {
	Order
	UserInitial  string
	StoreInitial string
}

// WithLines is a full order as returned to callers.
type WithLines struct {
	Header
	Lines []LineView
}

// CreateRequest is the input for converting a cart into an order. A nil Date
// means today.
type CreateRequest struct {
	OrderNumber    string
	StoreID        int64
	Date           *time.Time
	PaymentCash    decimal.Decimal
	PaymentNonCash decimal.Decimal
	CustomerID     *int64
}

// Tx is the set of operations available inside an order transaction. All of
// them run on the same underlying transaction.
type Tx interface {
	// LockCart returns the user's cart lines for a store and holds them
	// against concurrent conversion until the transaction ends.
	LockCart(ctx context.Context, userID, storeID int64) ([]cart.Line, error)
	// InsertOrder stores o and fills in its ID and CreatedAt.
	InsertOrder(ctx context.Context, o *Order) error
	// InsertLines stores the lines and fills in their IDs.
	InsertLines(ctx context.Context, lines []Line) error
	ClearCart(ctx context.Context, userID, storeID int64) error
	// GetOrder reads back an order written in this transaction.
	GetOrder(ctx context.Context, orderID int64) (*WithLines, error)
}

// UnitOfWork runs fn in a transaction. The transaction commits when fn
// returns nil and rolls back when it returns an error or panics.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Repository reads committed orders.
type Repository interface {
	// Get returns a NotFound error when the order does not exist or was
	// created by a user of another company.
	Get(ctx context.Context, companyID, orderID int64) (*WithLines, error)
}
