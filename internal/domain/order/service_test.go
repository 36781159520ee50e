package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/discount"
)

// --- Mock implementations ---

type mockTx struct {
	cart     []cart.Line
	lockErr  error
	orderErr error
	lineErr  error

	order   *Order
	lines   []Line
	cleared bool
}

func (m *mockTx) LockCart(_ context.Context, _, _ int64) ([]cart.Line, error) {
	return m.cart, m.lockErr
}

func (m *mockTx) InsertOrder(_ context.Context, o *Order) error {
	if m.orderErr != nil {
		return m.orderErr
	}
	o.ID = 501
	m.order = o
	return nil
}

func (m *mockTx) InsertLines(_ context.Context, lines []Line) error {
	if m.lineErr != nil {
		return m.lineErr
	}
	m.lines = lines
	return nil
}

func (m *mockTx) ClearCart(_ context.Context, _, _ int64) error {
	m.cleared = true
	return nil
}

func (m *mockTx) GetOrder(_ context.Context, orderID int64) (*WithLines, error) {
	out := &WithLines{Header: Header{Order: *m.order, UserInitial: "AL", StoreInitial: "S1"}}
	for _, l := range m.lines {
		out.Lines = append(out.Lines, LineView{Line: l})
	}
	out.ID = orderID
	return out, nil
}

type mockUOW struct {
	tx        *mockTx
	calls     int
	committed bool
}

func (m *mockUOW) Do(ctx context.Context, fn func(context.Context, Tx) error) error {
	m.calls++
	if err := fn(ctx, m.tx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

type mockOrderRepo struct {
	orders map[int64]*WithLines
	err    error
}

func (m *mockOrderRepo) Get(_ context.Context, companyID, orderID int64) (*WithLines, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[orderID]
	if !ok || companyID != 10 {
		return nil, apperr.NotFoundErr("order", orderID)
	}
	return o, nil
}

// --- Helpers ---

var (
	caller  = auth.Identity{UserID: 1, CompanyID: 10}
	fixedAt = time.Date(2025, 6, 15, 18, 45, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T, uow UnitOfWork, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(uow, repo, metricnoop.NewMeterProvider().Meter("test"), tracenoop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedAt }
	return svc
}

func cartLine(productID int64, sale string, qty int) cart.Line {
	return cart.Line{
		ProductID:    productID,
		BasePrice:    dec(sale),
		Quantity:     qty,
		DiscountType: discount.Fixed,
		SalePrice:    dec(sale),
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		OrderNumber:    "INV-0001",
		StoreID:        1,
		PaymentCash:    dec("100"),
		PaymentNonCash: decimal.Zero,
	}
}

// --- Tests ---

func TestCreate_Totals(t *testing.T) {
	tests := []struct {
		name           string
		cart           []cart.Line
		cash, nonCash  string
		wantGrand      string
		wantReceivable string
	}{
		{
			name:           "two lines fully paid",
			cart:           []cart.Line{cartLine(1, "9000", 2), cartLine(2, "5000", 1)},
			cash:           "20000",
			nonCash:        "3000",
			wantGrand:      "23000",
			wantReceivable: "0",
		},
		{
			name:           "partial payment leaves receivable",
			cart:           []cart.Line{cartLine(1, "100", 1)},
			cash:           "30",
			nonCash:        "20",
			wantGrand:      "100",
			wantReceivable: "50",
		},
		{
			name:           "overpayment clamps receivable at zero",
			cart:           []cart.Line{cartLine(1, "100", 1)},
			cash:           "150",
			nonCash:        "0",
			wantGrand:      "100",
			wantReceivable: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &mockTx{cart: tt.cart}
			uow := &mockUOW{tx: tx}
			svc := newTestService(t, uow, &mockOrderRepo{})

			req := validRequest()
			req.PaymentCash = dec(tt.cash)
			req.PaymentNonCash = dec(tt.nonCash)

			got, err := svc.Create(context.Background(), caller, req)
			require.NoError(t, err)

			assert.True(t, uow.committed)
			assert.True(t, tx.cleared)
			assert.Equal(t, int64(501), got.ID)
			assert.True(t, dec(tt.wantGrand).Equal(got.GrandTotal), "grand %s", got.GrandTotal)
			assert.True(t, dec(tt.wantReceivable).Equal(got.Receivable), "receivable %s", got.Receivable)
			require.Len(t, got.Lines, len(tt.cart))
			for i, l := range got.Lines {
				assert.Equal(t, int64(501), l.OrderID)
				assert.True(t, tt.cart[i].Total().Equal(l.TotalPrice))
			}
		})
	}
}

func TestCreate_DefaultsDateToToday(t *testing.T) {
	tx := &mockTx{cart: []cart.Line{cartLine(1, "10", 1)}}
	svc := newTestService(t, &mockUOW{tx: tx}, &mockOrderRepo{})

	got, err := svc.Create(context.Background(), caller, validRequest())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got.Date)

	explicit := time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC)
	tx = &mockTx{cart: []cart.Line{cartLine(1, "10", 1)}}
	svc = newTestService(t, &mockUOW{tx: tx}, &mockOrderRepo{})
	req := validRequest()
	req.Date = &explicit

	got, err = svc.Create(context.Background(), caller, req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), got.Date)
}

func TestCreate_EmptyCart(t *testing.T) {
	tx := &mockTx{}
	uow := &mockUOW{tx: tx}
	svc := newTestService(t, uow, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), caller, validRequest())
	require.ErrorIs(t, err, ErrEmptyCart)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, uow.committed)
	assert.Nil(t, tx.order)
	assert.False(t, tx.cleared)
}

func TestCreate_Validation(t *testing.T) {
	neg := int64(-1)
	tests := []struct {
		name   string
		modify func(*CreateRequest)
		field  string
	}{
		{"missing order number", func(r *CreateRequest) { r.OrderNumber = "" }, "order_number"},
		{"missing store", func(r *CreateRequest) { r.StoreID = 0 }, "store_id"},
		{"negative cash", func(r *CreateRequest) { r.PaymentCash = dec("-1") }, "payment_cash"},
		{"negative non cash", func(r *CreateRequest) { r.PaymentNonCash = dec("-0.5") }, "payment_non_cash"},
		{"cash finer than cents", func(r *CreateRequest) { r.PaymentCash = dec("99.995") }, "payment_cash"},
		{"non cash finer than cents", func(r *CreateRequest) { r.PaymentNonCash = dec("0.001") }, "payment_non_cash"},
		{"bad customer", func(r *CreateRequest) { r.CustomerID = &neg }, "customer_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := &mockUOW{tx: &mockTx{cart: []cart.Line{cartLine(1, "1", 1)}}}
			svc := newTestService(t, uow, &mockOrderRepo{})

			req := validRequest()
			tt.modify(&req)

			_, err := svc.Create(context.Background(), caller, req)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.Validation, ae.Kind)
			assert.Equal(t, tt.field, ae.Field)
			assert.Zero(t, uow.calls)
		})
	}
}

func TestCreate_StepFailurePropagates(t *testing.T) {
	dup := apperr.DB("insert order", errors.New("duplicate key value violates unique constraint"))

	tests := []struct {
		name string
		tx   *mockTx
		want error
	}{
		{"lock fails", &mockTx{lockErr: apperr.Conn("acquire", errors.New("refused"))}, apperr.ErrConnection},
		{"duplicate order number", &mockTx{cart: []cart.Line{cartLine(1, "1", 1)}, orderErr: dup}, apperr.ErrDatabase},
		{"lines fail", &mockTx{cart: []cart.Line{cartLine(1, "1", 1)}, lineErr: errors.New("fk violation")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := &mockUOW{tx: tt.tx}
			svc := newTestService(t, uow, &mockOrderRepo{})

			_, err := svc.Create(context.Background(), caller, validRequest())
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
			assert.False(t, uow.committed)
			assert.False(t, tt.tx.cleared)
			assert.NotEqual(t, apperr.Validation, apperr.KindOf(err))
		})
	}
}

func TestGet(t *testing.T) {
	stored := &WithLines{Header: Header{Order: Order{ID: 9, OrderNumber: "A-9"}, UserInitial: "AL", StoreInitial: "S1"}}
	repo := &mockOrderRepo{orders: map[int64]*WithLines{9: stored}}
	svc := newTestService(t, &mockUOW{}, repo)
	ctx := context.Background()

	got, err := svc.Get(ctx, caller, 9)
	require.NoError(t, err)
	assert.Equal(t, "A-9", got.OrderNumber)

	_, err = svc.Get(ctx, auth.Identity{UserID: 5, CompanyID: 99}, 9)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Get(ctx, caller, 404)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Get(ctx, caller, 0)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReceivable(t *testing.T) {
	assert.True(t, dec("0").Equal(Receivable(dec("10"), dec("10"), dec("0"))))
	assert.True(t, dec("2.50").Equal(Receivable(dec("10"), dec("5"), dec("2.50"))))
	assert.True(t, decimal.Zero.Equal(Receivable(dec("10"), dec("7"), dec("7"))))
}
