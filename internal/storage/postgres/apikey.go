package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
)

const getAPIKeyByHashSQL = `SELECT k.id, k.key_hash, k.name, k.user_id, u.company_id
	FROM api_keys k
	JOIN users u ON u.id = k.user_id
	WHERE k.key_hash = $1 AND k.active = TRUE`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	db *Provider
}

// NewAPIKeyRepository returns an APIKeyRepository that draws connections from p.
func NewAPIKeyRepository(p *Provider) *APIKeyRepository {
	return &APIKeyRepository{db: p}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	var info auth.APIKeyInfo
	err = pool.QueryRow(ctx, getAPIKeyByHashSQL, hash).Scan(
		&info.ID, &info.KeyHash, &info.Name, &info.UserID, &info.CompanyID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "api key", Err: err}
		}
		return nil, classify("find api key", err)
	}
	return &info, nil
}
