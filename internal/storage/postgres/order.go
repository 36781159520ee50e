package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
)

const orderHeaderColumns = `o.id, o.order_number, o.user_id, o.store_id, o.customer_id, o.order_date,
	o.grand_total, o.payment_cash, o.payment_non_cash, o.receivable, o.created_at,
	u.initial, s.initial`

const (
	insertOrderSQL = `INSERT INTO orders (order_number, user_id, store_id, customer_id, order_date,
		grand_total, payment_cash, payment_non_cash, receivable)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, product_id, qty, base_price, discount_type,
		discount_value, discount_amount, sale_price, total_price)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

	getOrderSQL = `SELECT ` + orderHeaderColumns + `
	FROM orders o
	JOIN users u ON u.id = o.user_id
	JOIN stores s ON s.id = o.store_id
	WHERE o.id = $1`

	getCompanyOrderSQL = getOrderSQL + ` AND u.company_id = $2`

	listOrderLinesSQL = `SELECT l.id, l.order_id, l.product_id, l.qty, l.base_price, l.discount_type,
		l.discount_value, l.discount_amount, l.sale_price, l.total_price, p.name, p.sku
	FROM order_lines l
	JOIN products p ON p.id = l.product_id
	WHERE l.order_id = ANY($1)
	ORDER BY l.order_id, l.id`
)

// querier is the read side shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var (
	_ order.Repository = (*OrderRepository)(nil)
	_ order.UnitOfWork = (*UnitOfWork)(nil)
	_ order.Tx         = (*orderTx)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db *Provider
}

// NewOrderRepository returns an OrderRepository that draws connections from p.
func NewOrderRepository(p *Provider) *OrderRepository {
	return &OrderRepository{db: p}
}

// Get returns the order if its creator belongs to companyID.
func (r *OrderRepository) Get(ctx context.Context, companyID, orderID int64) (*order.WithLines, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return loadOrder(ctx, pool, orderID, getCompanyOrderSQL, orderID, companyID)
}

// UnitOfWork runs order transactions on a single pgx transaction.
type UnitOfWork struct {
	db *Provider
}

// NewUnitOfWork returns a UnitOfWork that draws connections from p.
func NewUnitOfWork(p *Provider) *UnitOfWork {
	return &UnitOfWork{db: p}
}

// Do runs fn under READ COMMITTED. Cart rows are locked by Tx.LockCart, so a
// concurrent conversion of the same cart waits and then sees it empty.
// Commit and rollback ignore caller cancellation so the outcome is always
// all or nothing.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) (rerr error) {
	pool, err := u.db.Pool(ctx)
	if err != nil {
		return err
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin order tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if rerr != nil {
			if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				zctx.From(ctx).Warn("Rollback failed", zap.Error(err))
			}
		}
	}()

	if err := fn(ctx, &orderTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(context.WithoutCancel(ctx)); err != nil {
		return classify("commit order tx", err)
	}
	return nil
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) LockCart(ctx context.Context, userID, storeID int64) ([]cart.Line, error) {
	rows, err := t.tx.Query(ctx, lockCartSQL, userID, storeID)
	if err != nil {
		return nil, classify("lock cart", err)
	}
	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, classify("lock cart", err)
	}
	return lines, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber, o.UserID, o.StoreID, o.CustomerID, dateArg(o.Date),
		o.GrandTotal, o.PaymentCash, o.PaymentNonCash, o.Receivable,
	).Scan(&o.ID, &o.CreatedAt)
	return classify("insert order", err)
}

func (t *orderTx) InsertLines(ctx context.Context, lines []order.Line) error {
	b := &pgx.Batch{}
	for _, l := range lines {
		b.Queue(insertOrderLineSQL,
			l.OrderID, l.ProductID, l.Quantity, l.BasePrice, string(l.DiscountType),
			l.DiscountValue, l.DiscountAmount, l.SalePrice, l.TotalPrice,
		)
	}
	br := t.tx.SendBatch(ctx, b)
	for i := range lines {
		if err := br.QueryRow().Scan(&lines[i].ID); err != nil {
			_ = br.Close()
			return classify("insert order line", err)
		}
	}
	return classify("insert order lines", br.Close())
}

func (t *orderTx) ClearCart(ctx context.Context, userID, storeID int64) error {
	_, err := t.tx.Exec(ctx, clearCartSQL, userID, storeID)
	return classify("clear cart", err)
}

func (t *orderTx) GetOrder(ctx context.Context, orderID int64) (*order.WithLines, error) {
	return loadOrder(ctx, t.tx, orderID, getOrderSQL, orderID)
}

func loadOrder(ctx context.Context, q querier, orderID int64, sql string, args ...any) (*order.WithLines, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("get order", err)
	}
	h, err := pgx.CollectExactlyOneRow(rows, scanOrderHeader)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundErr("order", orderID)
		}
		return nil, classify("get order", err)
	}
	lines, err := listOrderLines(ctx, q, []int64{orderID})
	if err != nil {
		return nil, err
	}
	return &order.WithLines{Header: h, Lines: lines}, nil
}

func listOrderLines(ctx context.Context, q querier, orderIDs []int64) ([]order.LineView, error) {
	rows, err := q.Query(ctx, listOrderLinesSQL, orderIDs)
	if err != nil {
		return nil, classify("list order lines", err)
	}
	lines, err := pgx.CollectRows(rows, scanOrderLine)
	if err != nil {
		return nil, classify("list order lines", err)
	}
	return lines, nil
}

func scanOrderHeader(row pgx.CollectableRow) (order.Header, error) {
	var h order.Header
	err := row.Scan(
		&h.ID, &h.OrderNumber, &h.UserID, &h.StoreID, &h.CustomerID, &h.Date,
		&h.GrandTotal, &h.PaymentCash, &h.PaymentNonCash, &h.Receivable, &h.CreatedAt,
		&h.UserInitial, &h.StoreInitial,
	)
	return h, err
}

func scanOrderLine(row pgx.CollectableRow) (order.LineView, error) {
	var l order.LineView
	err := row.Scan(
		&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.BasePrice, &l.DiscountType,
		&l.DiscountValue, &l.DiscountAmount, &l.SalePrice, &l.TotalPrice,
		&l.ProductName, &l.SKU,
	)
	return l, err
}
