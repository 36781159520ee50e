package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository backed by PostgreSQL.
type ReportRepository struct {
	db *Provider
}

// NewReportRepository returns a ReportRepository that draws connections from p.
func NewReportRepository(p *Provider) *ReportRepository {
	return &ReportRepository{db: p}
}

func (r *ReportRepository) ListOrders(ctx context.Context, f report.Filter) ([]order.Header, error) {
	query, args, err := listOrdersQuery(f).ToSql()
	if err != nil {
		return nil, classify("build report query", err)
	}
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list report orders", err)
	}
	headers, err := pgx.CollectRows(rows, scanOrderHeader)
	if err != nil {
		return nil, classify("list report orders", err)
	}
	return headers, nil
}

func (r *ReportRepository) ListLines(ctx context.Context, orderIDs []int64) ([]order.LineView, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return listOrderLines(ctx, pool, orderIDs)
}

// listOrdersQuery selects the company's orders in the date range, optionally
// restricted to one store.
func listOrdersQuery(f report.Filter) sq.SelectBuilder {
	q := psql.Select(orderHeaderColumns).
		From("orders o").
		Join("users u ON u.id = o.user_id").
		Join("stores s ON s.id = o.store_id").
		Where(sq.Eq{"u.company_id": f.CompanyID}).
		Where(sq.GtOrEq{"o.order_date": dateArg(f.Start)}).
		Where(sq.LtOrEq{"o.order_date": dateArg(f.End)})
	if f.StoreID != 0 {
		q = q.Where(sq.Eq{"o.store_id": f.StoreID})
	}
	return q.OrderBy("o.order_date DESC", "o.id DESC")
}

func dateArg(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}
