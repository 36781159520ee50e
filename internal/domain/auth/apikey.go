package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
)

// APIKeyInfo is a stored API key together with the user it authenticates.
type APIKeyInfo struct {
	ID        string
	KeyHash   string
	Name      string
	UserID    int64
	CompanyID int64
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashKey returns the HMAC-SHA256 of key under pepper, as stored in
// APIKeyInfo.KeyHash (hex encoded).
func HashKey(pepper []byte, key string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}
