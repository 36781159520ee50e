package report

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/order"
)

// Service generates sales reports.
type Service struct {
	repo Repository
}

// NewService creates a report Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Generate loads the caller's company orders matching q with their lines and
// aggregates them. No matching orders is an empty report, not an error.
func (s *Service) Generate(ctx context.Context, id auth.Identity, q Query) (*Report, error) {
	if q.Start.IsZero() || q.End.IsZero() {
		return nil, apperr.Validationf("start_date", "start and end dates are required")
	}
	if q.End.Before(q.Start) {
		return nil, apperr.Validationf("end_date", "must not be before start_date")
	}
	if q.StoreID < 0 {
		return nil, apperr.Validationf("store_id", "must not be negative")
	}

	headers, err := s.repo.ListOrders(ctx, Filter{
		CompanyID: id.CompanyID,
		Start:     q.Start,
		End:       q.End,
		StoreID:   q.StoreID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list report orders")
	}

	var lines []order.LineView
	if len(headers) > 0 {
		ids := make([]int64, len(headers))
		for i, h := range headers {
			ids[i] = h.ID
		}
		lines, err = s.repo.ListLines(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "list report lines")
		}
	}

	orders := attachLines(headers, lines)
	return &Report{
		Query:   q,
		Orders:  orders,
		SKUs:    SummarizeSKUs(orders),
		Summary: Summarize(orders),
	}, nil
}
