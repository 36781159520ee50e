package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/discount"
)

// Service implements the cart operations on top of a Repository.
type Service struct {
	lines Repository
	now   func() time.Time
}

// NewService creates a cart Service.
func NewService(lines Repository) *Service {
	return &Service{
		lines: lines,
		now:   time.Now,
	}
}

// Add validates in, derives its discount and stores a new line.
func (s *Service) Add(ctx context.Context, id auth.Identity, in NewLine) (*Line, error) {
	if in.StoreID <= 0 {
		return nil, apperr.Validationf("store_id", "must be positive")
	}
	if in.ProductID <= 0 {
		return nil, apperr.Validationf("product_id", "must be positive")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validationf("quantity", "must be greater than 0, got %d", in.Quantity)
	}
	typ, err := discount.ParseType(in.DiscountType)
	if err != nil {
		return nil, err
	}
	// The type and value are validated even when a sale price override
	// makes them irrelevant for pricing, since they are stored as given.
	if _, err := discount.Compute(in.BasePrice, typ, in.DiscountValue); err != nil {
		return nil, err
	}
	res, err := discount.Resolve(in.BasePrice, typ, in.DiscountValue, in.SalePrice)
	if err != nil {
		return nil, err
	}
	storeOK, productOK, err := s.lines.InCatalog(ctx, id.CompanyID, in.StoreID, in.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "add cart line")
	}
	if !storeOK {
		return nil, apperr.Validationf("store_id", "unknown store %d", in.StoreID)
	}
	if !productOK {
		return nil, apperr.Validationf("product_id", "unknown product %d", in.ProductID)
	}

	now := s.now().UTC()
	l := &Line{
		UserID:         id.UserID,
		StoreID:        in.StoreID,
		ProductID:      in.ProductID,
		BasePrice:      in.BasePrice,
		Quantity:       in.Quantity,
		DiscountType:   typ,
		DiscountValue:  in.DiscountValue,
		DiscountAmount: res.Amount,
		SalePrice:      res.SalePrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.lines.Insert(ctx, l); err != nil {
		return nil, errors.Wrap(err, "add cart line")
	}
	return l, nil
}

// List returns the caller's cart for a store.
func (s *Service) List(ctx context.Context, id auth.Identity, storeID int64) ([]LineView, error) {
	if storeID <= 0 {
		return nil, apperr.Validationf("store_id", "must be positive")
	}
	lines, err := s.lines.ListByStore(ctx, id.UserID, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	return lines, nil
}

// Update merges upd into an existing line and recomputes the discount and
// sale price from the merged values.
func (s *Service) Update(ctx context.Context, id auth.Identity, lineID int64, upd Update) (*Line, error) {
	l, err := s.lines.Get(ctx, id.UserID, lineID)
	if err != nil {
		return nil, errors.Wrap(err, "update cart line")
	}

	if upd.Quantity != nil {
		if *upd.Quantity <= 0 {
			return nil, apperr.Validationf("quantity", "must be greater than 0, got %d", *upd.Quantity)
		}
		l.Quantity = *upd.Quantity
	}
	if upd.BasePrice != nil {
		l.BasePrice = *upd.BasePrice
	}
	if upd.DiscountType != nil {
		typ, err := discount.ParseType(*upd.DiscountType)
		if err != nil {
			return nil, err
		}
		l.DiscountType = typ
	}
	if upd.DiscountValue != nil {
		l.DiscountValue = *upd.DiscountValue
	}
	res, err := discount.Compute(l.BasePrice, l.DiscountType, l.DiscountValue)
	if err != nil {
		return nil, err
	}
	l.DiscountAmount = res.Amount
	l.SalePrice = res.SalePrice
	l.UpdatedAt = s.now().UTC()

	if err := s.lines.Update(ctx, l); err != nil {
		return nil, errors.Wrap(err, "update cart line")
	}
	return l, nil
}

// Delete removes one line. It reports false when there was nothing to remove.
func (s *Service) Delete(ctx context.Context, id auth.Identity, lineID int64) (bool, error) {
	deleted, err := s.lines.Delete(ctx, id.UserID, lineID)
	if err != nil {
		return false, errors.Wrap(err, "delete cart line")
	}
	return deleted, nil
}

// Clear empties the caller's cart for a store.
func (s *Service) Clear(ctx context.Context, id auth.Identity, storeID int64) (bool, error) {
	if storeID <= 0 {
		return false, apperr.Validationf("store_id", "must be positive")
	}
	cleared, err := s.lines.Clear(ctx, id.UserID, storeID)
	if err != nil {
		return false, errors.Wrap(err, "clear cart")
	}
	if cleared {
		zctx.From(ctx).Info("Cart cleared",
			zap.Int64("user_id", id.UserID),
			zap.Int64("store_id", storeID),
		)
	}
	return cleared, nil
}
