package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/apperr"
	"github.com/xenking/pos-sales/internal/domain/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "api_key"

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API keys
// and attaches the caller's identity to the request context.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate rejects requests without a valid API key with 401. A key
// store outage is reported as such instead of as bad credentials.
func (s *SecurityHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: http.StatusUnauthorized, Message: "unauthorized"})
			return
		}

		hash := auth.HashKey(s.pepper, key)
		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: http.StatusUnauthorized, Message: "unauthorized"})
				return
			}
			writeError(w, r, err)
			return
		}

		// The stored hash could differ from ours if the repository returned
		// the wrong row.
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: http.StatusUnauthorized, Message: "unauthorized"})
			return
		}

		id := auth.Identity{UserID: info.UserID, CompanyID: info.CompanyID}
		ctx := auth.WithIdentity(r.Context(), id)
		ctx = zctx.With(ctx, zap.Int64("user_id", id.UserID), zap.Int64("company_id", id.CompanyID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity returns the caller attached by Authenticate.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
