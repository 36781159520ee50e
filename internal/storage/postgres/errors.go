package postgres

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/pos-sales/internal/apperr"
)

const uniqueViolation = "23505"

// classify wraps a driver error with its apperr kind. Failures to reach the
// server are Connection errors; everything else is Database.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperr.Conn(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &apperr.Error{Kind: apperr.Database, Op: op, Msg: "duplicate " + pgErr.ConstraintName, Err: err}
	}
	return apperr.DB(op, err)
}
