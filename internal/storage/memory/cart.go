package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/cart"
)

var _ cart.Repository = (*Carts)(nil)

// Carts is the cart.Repository view of a Store.
type Carts struct{ s *Store }

// Carts returns the cart repository of s.
func (s *Store) Carts() *Carts { return &Carts{s: s} }

func (r *Carts) InCatalog(_ context.Context, companyID, storeID, productID int64) (storeOK, productOK bool, err error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stores[storeID]
	storeOK = ok && st.companyID == companyID
	p, ok := r.s.products[productID]
	productOK = ok && p.companyID == companyID
	return storeOK, productOK, nil
}

func (r *Carts) Insert(_ context.Context, l *cart.Line) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.state.id()
	r.s.state.cart[l.ID] = *l
	return nil
}

func (r *Carts) ListByStore(_ context.Context, userID, storeID int64) ([]cart.LineView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []cart.LineView{}
	for _, l := range r.s.state.cart {
		if l.UserID != userID || l.StoreID != storeID {
			continue
		}
		p := r.s.products[l.ProductID]
		out = append(out, cart.LineView{
			Line:        l,
			ProductName: p.name,
			SKU:         p.sku,
			UnitName:    p.unit,
			Stock:       r.s.stock[stockKey{l.StoreID, l.ProductID}],
		})
	}
	slices.SortFunc(out, func(a, b cart.LineView) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r *Carts) Get(_ context.Context, userID, lineID int64) (*cart.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.state.cart[lineID]
	if !ok || l.UserID != userID {
		return nil, apperr.NotFoundErr("cart line", lineID)
	}
	return &l, nil
}

func (r *Carts) Update(_ context.Context, l *cart.Line) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.state.cart[l.ID]
	if !ok || cur.UserID != l.UserID {
		return apperr.NotFoundErr("cart line", l.ID)
	}
	updated := *l
	updated.StoreID, updated.ProductID, updated.CreatedAt = cur.StoreID, cur.ProductID, cur.CreatedAt
	r.s.state.cart[l.ID] = updated
	return nil
}

func (r *Carts) Delete(_ context.Context, userID, lineID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.state.cart[lineID]
	if !ok || l.UserID != userID {
		return false, nil
	}
	delete(r.s.state.cart, lineID)
	return true, nil
}

func (r *Carts) Clear(_ context.Context, userID, storeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clearCart(r.s.state, userID, storeID), nil
}

func clearCart(st *state, userID, storeID int64) bool {
	removed := false
	for id, l := range st.cart {
		if l.UserID == userID && l.StoreID == storeID {
			delete(st.cart, id)
			removed = true
		}
	}
	return removed
}
