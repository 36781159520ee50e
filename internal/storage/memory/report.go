package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
)

var _ report.Repository = (*Reports)(nil)

// Reports is the report.Repository view of a Store.
type Reports struct{ s *Store }

// Reports returns the report repository of s.
func (s *Store) Reports() *Reports { return &Reports{s: s} }

func (r *Reports) ListOrders(_ context.Context, f report.Filter) ([]order.Header, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []order.Header{}
	for _, o := range r.s.state.orders {
		switch {
		case r.s.users[o.UserID].companyID != f.CompanyID,
			o.Date.Before(f.Start) || o.Date.After(f.End),
			f.StoreID != 0 && o.StoreID != f.StoreID:
			continue
		}
		out = append(out, r.s.header(o))
	}
	slices.SortFunc(out, func(a, b order.Header) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r *Reports) ListLines(_ context.Context, orderIDs []int64) ([]order.LineView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []order.LineView
	for _, id := range orderIDs {
		o, ok := r.s.state.orders[id]
		if !ok {
			continue
		}
		out = append(out, r.s.withLines(r.s.state, o).Lines...)
	}
	return out, nil
}
