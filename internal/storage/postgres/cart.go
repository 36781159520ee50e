package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/cart"
)

const cartLineColumns = `c.id, c.user_id, c.store_id, c.product_id, c.base_price, c.qty,
	c.discount_type, c.discount_value, c.discount_amount, c.sale_price, c.created_at, c.updated_at`

const (
	insertCartLineSQL = `INSERT INTO cart_lines (user_id, store_id, product_id, base_price, qty,
		discount_type, discount_value, discount_amount, sale_price, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

	listCartSQL = `SELECT ` + cartLineColumns + `, p.name, p.sku, p.unit_name, COALESCE(s.qty, 0)
	FROM cart_lines c
	JOIN products p ON p.id = c.product_id
	LEFT JOIN stock s ON s.store_id = c.store_id AND s.product_id = c.product_id
	WHERE c.user_id = $1 AND c.store_id = $2
	ORDER BY c.created_at DESC, c.id DESC`

	getCartLineSQL = `SELECT ` + cartLineColumns + `
	FROM cart_lines c WHERE c.id = $1 AND c.user_id = $2`

	updateCartLineSQL = `UPDATE cart_lines SET base_price = $3, qty = $4, discount_type = $5,
		discount_value = $6, discount_amount = $7, sale_price = $8, updated_at = $9
	WHERE id = $1 AND user_id = $2`

	deleteCartLineSQL = `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND store_id = $2`

	inCatalogSQL = `SELECT
		EXISTS (SELECT 1 FROM stores WHERE id = $2 AND company_id = $1),
		EXISTS (SELECT 1 FROM products WHERE id = $3 AND company_id = $1)`

	lockCartSQL = `SELECT ` + cartLineColumns + `
	FROM cart_lines c WHERE c.user_id = $1 AND c.store_id = $2
	ORDER BY c.id
	FOR UPDATE`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	db *Provider
}

// NewCartRepository returns a CartRepository that draws connections from p.
func NewCartRepository(p *Provider) *CartRepository {
	return &CartRepository{db: p}
}

func (r *CartRepository) InCatalog(ctx context.Context, companyID, storeID, productID int64) (storeOK, productOK bool, err error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return false, false, err
	}
	err = pool.QueryRow(ctx, inCatalogSQL, companyID, storeID, productID).Scan(&storeOK, &productOK)
	if err != nil {
		return false, false, classify("check catalog", err)
	}
	return storeOK, productOK, nil
}

func (r *CartRepository) Insert(ctx context.Context, l *cart.Line) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	err = pool.QueryRow(ctx, insertCartLineSQL,
		l.UserID, l.StoreID, l.ProductID, l.BasePrice, l.Quantity,
		string(l.DiscountType), l.DiscountValue, l.DiscountAmount, l.SalePrice,
		l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
	return classify("insert cart line", err)
}

func (r *CartRepository) ListByStore(ctx context.Context, userID, storeID int64) ([]cart.LineView, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, listCartSQL, userID, storeID)
	if err != nil {
		return nil, classify("list cart", err)
	}
	views, err := pgx.CollectRows(rows, scanCartLineView)
	if err != nil {
		return nil, classify("list cart", err)
	}
	return views, nil
}

func (r *CartRepository) Get(ctx context.Context, userID, lineID int64) (*cart.Line, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, getCartLineSQL, lineID, userID)
	if err != nil {
		return nil, classify("get cart line", err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundErr("cart line", lineID)
		}
		return nil, classify("get cart line", err)
	}
	return &l, nil
}

func (r *CartRepository) Update(ctx context.Context, l *cart.Line) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, updateCartLineSQL,
		l.ID, l.UserID, l.BasePrice, l.Quantity, string(l.DiscountType),
		l.DiscountValue, l.DiscountAmount, l.SalePrice, l.UpdatedAt,
	)
	if err != nil {
		return classify("update cart line", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundErr("cart line", l.ID)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, lineID int64) (bool, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return false, err
	}
	tag, err := pool.Exec(ctx, deleteCartLineSQL, lineID, userID)
	if err != nil {
		return false, classify("delete cart line", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CartRepository) Clear(ctx context.Context, userID, storeID int64) (bool, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return false, err
	}
	tag, err := pool.Exec(ctx, clearCartSQL, userID, storeID)
	if err != nil {
		return false, classify("clear cart", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(cartLineDest(&l)...)
	return l, err
}

func scanCartLineView(row pgx.CollectableRow) (cart.LineView, error) {
	var v cart.LineView
	dest := append(cartLineDest(&v.Line), &v.ProductName, &v.SKU, &v.UnitName, &v.Stock)
	err := row.Scan(dest...)
	return v, err
}

func cartLineDest(l *cart.Line) []any {
	return []any{
		&l.ID, &l.UserID, &l.StoreID, &l.ProductID, &l.BasePrice, &l.Quantity,
		&l.DiscountType, &l.DiscountValue, &l.DiscountAmount, &l.SalePrice,
		&l.CreatedAt, &l.UpdatedAt,
	}
}
