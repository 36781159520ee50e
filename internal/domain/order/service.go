package order

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/discount"
)

const maxOrderNumberLen = 64

// ErrEmptyCart is returned when an order is requested for an empty cart.
var ErrEmptyCart = &apperr.Error{Kind: apperr.Validation, Msg: "cart is empty"}

// Service encapsulates order creation and retrieval.
type Service struct {
	uow     UnitOfWork
	orders  Repository
	tracer  trace.Tracer
	metrics *metrics
	now     func() time.Time
}

// NewService creates an order Service.
func NewService(uow UnitOfWork, orders Repository, meter metric.Meter, tracer trace.Tracer) (*Service, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Service{
		uow:     uow,
		orders:  orders,
		tracer:  tracer,
		metrics: m,
		now:     time.Now,
	}, nil
}

func validateCreate(req CreateRequest) error {
	switch {
	case req.OrderNumber == "":
		return apperr.Validationf("order_number", "required")
	case utf8.RuneCountInString(req.OrderNumber) > maxOrderNumberLen:
		return apperr.Validationf("order_number", "must be at most %d characters", maxOrderNumberLen)
	case req.StoreID <= 0:
		return apperr.Validationf("store_id", "must be positive")
	case req.CustomerID != nil && *req.CustomerID <= 0:
		return apperr.Validationf("customer_id", "must be positive")
	}
	if err := discount.CheckAmount("payment_cash", req.PaymentCash); err != nil {
		return err
	}
	return discount.CheckAmount("payment_non_cash", req.PaymentNonCash)
}

// Create converts the caller's cart for req.StoreID into an order. Either the
// order, all of its lines and the cart removal are committed together, or
// nothing is.
func (s *Service) Create(ctx context.Context, id auth.Identity, req CreateRequest) (_ *WithLines, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.String("order.number", req.OrderNumber),
			attribute.Int64("order.store_id", req.StoreID),
		),
	)
	start := s.now()
	defer func() {
		s.metrics.duration.Record(ctx, time.Since(start).Seconds())
		if rerr != nil {
			kind := apperr.KindOf(rerr)
			s.metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
			span.RecordError(rerr)
			span.SetStatus(codes.Error, kind.String())
		} else {
			s.metrics.created.Add(ctx, 1)
		}
		span.End()
	}()

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	date := s.today()
	if req.Date != nil {
		date = truncateDate(*req.Date)
	}

	var result *WithLines
	err := s.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		lines, err := tx.LockCart(ctx, id.UserID, req.StoreID)
		if err != nil {
			return errors.Wrap(err, "lock cart")
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		grand := GrandTotal(lines)
		o := &Order{
			OrderNumber:    req.OrderNumber,
			UserID:         id.UserID,
			StoreID:        req.StoreID,
			CustomerID:     req.CustomerID,
			Date:           date,
			GrandTotal:     grand,
			PaymentCash:    req.PaymentCash,
			PaymentNonCash: req.PaymentNonCash,
			Receivable:     Receivable(grand, req.PaymentCash, req.PaymentNonCash),
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.InsertLines(ctx, snapshotLines(o.ID, lines)); err != nil {
			return errors.Wrap(err, "insert order lines")
		}
		if err := tx.ClearCart(ctx, id.UserID, req.StoreID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		result, err = tx.GetOrder(ctx, o.ID)
		if err != nil {
			return errors.Wrap(err, "read back order")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(attribute.Int64("order.id", result.ID))
	zctx.From(ctx).Info("Order created",
		zap.Int64("order_id", result.ID),
		zap.String("order_number", result.OrderNumber),
		zap.Int64("store_id", result.StoreID),
		zap.Int("lines", len(result.Lines)),
		zap.Stringer("grand_total", result.GrandTotal),
	)
	return result, nil
}

// Get returns an order of the caller's company.
func (s *Service) Get(ctx context.Context, id auth.Identity, orderID int64) (*WithLines, error) {
	if orderID <= 0 {
		return nil, apperr.NotFoundErr("order", orderID)
	}
	o, err := s.orders.Get(ctx, id.CompanyID, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

func (s *Service) today() time.Time {
	return truncateDate(s.now())
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
