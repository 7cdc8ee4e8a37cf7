package user

import (
	"context"
	"time"
)

// TokenRevoker keeps track of logged-out tokens until they expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}
