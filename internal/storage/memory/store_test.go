package memory

import (
	"context"
	"sync"
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
	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
)

var (
	cashier = auth.Identity{UserID: 1, CompanyID: 1}
	rival   = auth.Identity{UserID: 9, CompanyID: 2}
)

func newServices(t *testing.T) (*Store, *cart.Service, *order.Service) {
	t.Helper()
	s := NewSeeded()
	s.AddUser(9, 2, "RV")
	orders, err := order.NewService(s, s.Orders(),
		metricnoop.NewMeterProvider().Meter("test"), tracenoop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)
	return s, cart.NewService(s.Carts()), orders
}

func fillCart(t *testing.T, carts *cart.Service) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []cart.NewLine{
		{StoreID: 1, ProductID: 1, BasePrice: decimal.NewFromInt(10000), Quantity: 2, DiscountType: "percentage", DiscountValue: decimal.NewFromInt(10)},
		{StoreID: 1, ProductID: 2, BasePrice: decimal.NewFromInt(5000), Quantity: 1},
	} {
		_, err := carts.Add(ctx, cashier, in)
		require.NoError(t, err)
	}
}

func request(number string) order.CreateRequest {
	return order.CreateRequest{
		OrderNumber:    number,
		StoreID:        1,
		PaymentCash:    decimal.NewFromInt(20000),
		PaymentNonCash: decimal.NewFromInt(3000),
	}
}

func TestCreateOrder_CommitsEverything(t *testing.T) {
	s, carts, orders := newServices(t)
	fillCart(t, carts)
	ctx := context.Background()

	o, err := orders.Create(ctx, cashier, request("INV-1"))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(23000).Equal(o.GrandTotal))
	assert.True(t, o.Receivable.IsZero())
	assert.Equal(t, "DV", o.UserInitial)
	assert.Equal(t, "MAIN", o.StoreInitial)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Coffee", o.Lines[0].ProductName)
	assert.True(t, decimal.NewFromInt(18000).Equal(o.Lines[0].TotalPrice))

	views, err := carts.List(ctx, cashier, 1)
	require.NoError(t, err)
	assert.Empty(t, views)

	got, err := orders.Get(ctx, cashier, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.Len(t, s.state.orders, 1)
}

func TestCheckout_DiscountedCartToOrder(t *testing.T) {
	_, carts, orders := newServices(t)
	ctx := context.Background()

	for _, in := range []cart.NewLine{
		{StoreID: 1, ProductID: 1, BasePrice: decimal.NewFromInt(100), Quantity: 2, DiscountType: "fixed", DiscountValue: decimal.NewFromInt(10)},
		{StoreID: 1, ProductID: 2, BasePrice: decimal.NewFromInt(50), Quantity: 1, DiscountType: "percentage", DiscountValue: decimal.NewFromInt(20)},
	} {
		_, err := carts.Add(ctx, cashier, in)
		require.NoError(t, err)
	}

	o, err := orders.Create(ctx, cashier, order.CreateRequest{
		OrderNumber: "INV-220",
		StoreID:     1,
		PaymentCash: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(220).Equal(o.GrandTotal), "grand total %s", o.GrandTotal)
	assert.True(t, decimal.NewFromInt(120).Equal(o.Receivable), "receivable %s", o.Receivable)
	require.Len(t, o.Lines, 2)
	totals := map[int64]string{}
	for _, l := range o.Lines {
		totals[l.ProductID] = l.TotalPrice.StringFixed(2)
	}
	assert.Equal(t, map[int64]string{1: "180.00", 2: "40.00"}, totals)

	views, err := carts.List(ctx, cashier, 1)
	require.NoError(t, err)
	assert.Empty(t, views)

	got, err := orders.Get(ctx, cashier, o.ID)
	require.NoError(t, err)
	assert.True(t, o.GrandTotal.Equal(got.GrandTotal))
}

func TestCartAdd_OtherCompanyCatalogRejected(t *testing.T) {
	s, carts, _ := newServices(t)
	s.AddStore(7, 2, "RIV")
	s.AddProduct(8, 2, "SKU-RIV", "Rival Tea", "cup")
	ctx := context.Background()

	_, err := carts.Add(ctx, cashier, cart.NewLine{StoreID: 7, ProductID: 1, BasePrice: decimal.NewFromInt(1), Quantity: 1})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = carts.Add(ctx, cashier, cart.NewLine{StoreID: 1, ProductID: 8, BasePrice: decimal.NewFromInt(1), Quantity: 1})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = carts.Add(ctx, rival, cart.NewLine{StoreID: 7, ProductID: 8, BasePrice: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(t, err)
}

func TestCreateOrder_RollsBackOnAnyStepFailure(t *testing.T) {
	for _, step := range []Step{StepLockCart, StepInsertOrder, StepInsertLines, StepClearCart} {
		t.Run(string(step), func(t *testing.T) {
			s, carts, orders := newServices(t)
			fillCart(t, carts)
			ctx := context.Background()

			injected := errors.New("disk full")
			s.FailAt(step, injected)

			_, err := orders.Create(ctx, cashier, request("INV-1"))
			require.ErrorIs(t, err, injected)

			assert.Empty(t, s.state.orders, "no order row may survive")
			assert.Empty(t, s.state.orderLines, "no line row may survive")
			views, err := carts.List(ctx, cashier, 1)
			require.NoError(t, err)
			assert.Len(t, views, 2, "cart must be intact")

			// The failure is consumed; a retry succeeds.
			_, err = orders.Create(ctx, cashier, request("INV-1"))
			require.NoError(t, err)
		})
	}
}

func TestCreateOrder_DuplicateNumberKeepsCart(t *testing.T) {
	s, carts, orders := newServices(t)
	ctx := context.Background()

	fillCart(t, carts)
	_, err := orders.Create(ctx, cashier, request("DUP"))
	require.NoError(t, err)

	fillCart(t, carts)
	_, err = orders.Create(ctx, cashier, request("DUP"))
	require.ErrorIs(t, err, apperr.ErrDatabase)
	assert.Len(t, s.state.orders, 1)

	views, err := carts.List(ctx, cashier, 1)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestCreateOrder_ConcurrentSameCart(t *testing.T) {
	_, carts, orders := newServices(t)
	fillCart(t, carts)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = orders.Create(context.Background(), cashier, request("C-"+string(rune('A'+i))))
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, order.ErrEmptyCart)
	}
	assert.Equal(t, 1, succeeded)
}

func TestGetOrder_OtherCompanyIsNotFound(t *testing.T) {
	_, carts, orders := newServices(t)
	fillCart(t, carts)
	ctx := context.Background()

	o, err := orders.Create(ctx, cashier, request("INV-9"))
	require.NoError(t, err)

	_, err = orders.Get(ctx, rival, o.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCartList_JoinsCatalogAndStock(t *testing.T) {
	s, carts, _ := newServices(t)
	s.SetStock(1, 2, 0)
	s.AddProduct(4, 1, "SKU-NEW", "New Item", "pcs")
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, pid := range []int64{1, 4} {
		l := &cart.Line{UserID: cashier.UserID, StoreID: 1, ProductID: pid, Quantity: 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Carts().Insert(ctx, l))
	}

	views, err := carts.List(ctx, cashier, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "SKU-NEW", views[0].SKU)
	assert.Equal(t, 0, views[0].Stock)
	assert.Equal(t, "cup", views[1].UnitName)
	assert.Equal(t, 50, views[1].Stock)
}

func TestReports_FilterAndOrdering(t *testing.T) {
	s, carts, orders := newServices(t)
	ctx := context.Background()
	day := func(d int) *time.Time {
		v := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	for i, d := range []int{1, 5, 9} {
		fillCart(t, carts)
		req := request("R-" + string(rune('0'+i)))
		req.Date = day(d)
		_, err := orders.Create(ctx, cashier, req)
		require.NoError(t, err)
	}

	rep, err := report.NewService(s.Reports()).Generate(ctx, cashier, report.Query{Start: *day(2), End: *day(9)})
	require.NoError(t, err)
	require.Len(t, rep.Orders, 2)
	assert.Equal(t, "R-2", rep.Orders[0].OrderNumber)
	assert.Equal(t, "R-1", rep.Orders[1].OrderNumber)
	require.Len(t, rep.SKUs, 2)
	assert.Equal(t, int64(4), rep.SKUs[0].Quantity)

	rep, err = report.NewService(s.Reports()).Generate(ctx, rival, report.Query{Start: *day(1), End: *day(31)})
	require.NoError(t, err)
	assert.Empty(t, rep.Orders)
}
