package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
)

var (
	_ order.UnitOfWork = (*Store)(nil)
	_ order.Repository = (*Orders)(nil)
	_ order.Tx         = (*tx)(nil)
)

// Do runs fn against a private copy of the store state and publishes the
// copy only when fn succeeds. Transactions are serialized.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s, st: s.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

type tx struct {
	s  *Store
	st *state
}

// fail returns and consumes an injected failure for step. The caller holds
// s.mu.
func (t *tx) fail(step Step) error {
	err, ok := t.s.failures[step]
	if !ok {
		return nil
	}
	delete(t.s.failures, step)
	return err
}

func (t *tx) LockCart(_ context.Context, userID, storeID int64) ([]cart.Line, error) {
	if err := t.fail(StepLockCart); err != nil {
		return nil, err
	}
	var out []cart.Line
	for _, l := range t.st.cart {
		if l.UserID == userID && l.StoreID == storeID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b cart.Line) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) InsertOrder(_ context.Context, o *order.Order) error {
	if err := t.fail(StepInsertOrder); err != nil {
		return err
	}
	if _, dup := t.st.orderNumbers[o.OrderNumber]; dup {
		return &apperr.Error{Kind: apperr.Database, Op: "insert order", Msg: "duplicate order number " + o.OrderNumber}
	}
	o.ID = t.st.id()
	o.CreatedAt = t.s.now().UTC()
	t.st.orders[o.ID] = *o
	t.st.orderNumbers[o.OrderNumber] = o.ID
	return nil
}

func (t *tx) InsertLines(_ context.Context, lines []order.Line) error {
	if err := t.fail(StepInsertLines); err != nil {
		return err
	}
	for i := range lines {
		lines[i].ID = t.st.id()
		t.st.orderLines[lines[i].OrderID] = append(t.st.orderLines[lines[i].OrderID], lines[i])
	}
	return nil
}

func (t *tx) ClearCart(_ context.Context, userID, storeID int64) error {
	if err := t.fail(StepClearCart); err != nil {
		return err
	}
	clearCart(t.st, userID, storeID)
	return nil
}

func (t *tx) GetOrder(_ context.Context, orderID int64) (*order.WithLines, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, apperr.NotFoundErr("order", orderID)
	}
	return t.s.withLines(t.st, o), nil
}

// withLines joins o with initials and product names. The caller holds s.mu.
func (s *Store) withLines(st *state, o order.Order) *order.WithLines {
	out := &order.WithLines{
		Header: s.header(o),
		Lines:  []order.LineView{},
	}
	for _, l := range st.orderLines[o.ID] {
		p := s.products[l.ProductID]
		out.Lines = append(out.Lines, order.LineView{Line: l, ProductName: p.name, SKU: p.sku})
	}
	return out
}

func (s *Store) header(o order.Order) order.Header {
	return order.Header{
		Order:        o,
		UserInitial:  s.users[o.UserID].initial,
		StoreInitial: s.stores[o.StoreID].initial,
	}
}

// Orders is the order.Repository view of a Store.
type Orders struct{ s *Store }

// Orders returns the order repository of s.
func (s *Store) Orders() *Orders { return &Orders{s: s} }

func (r *Orders) Get(_ context.Context, companyID, orderID int64) (*order.WithLines, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.state.orders[orderID]
	if !ok || r.s.users[o.UserID].companyID != companyID {
		return nil, apperr.NotFoundErr("order", orderID)
	}
	return r.s.withLines(r.s.state, o), nil
}
