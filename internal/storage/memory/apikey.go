package memory

import (
	"context"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
)

var _ auth.Repository = (*APIKeys)(nil)

// APIKeys is the auth.Repository view of a Store.
type APIKeys struct{ s *Store }

// APIKeys returns the API key repository of s.
func (s *Store) APIKeys() *APIKeys { return &APIKeys{s: s} }

func (r *APIKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	info, ok := r.s.apiKeys[hash]
	if !ok {
		return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "api key"}
	}
	return &info, nil
}
