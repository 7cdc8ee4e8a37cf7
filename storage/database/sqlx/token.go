package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

type tokenRepository struct {
	repository
	nowFunc func() time.Time
}

var _ user.TokenRevoker = (*tokenRepository)(nil) // interface compliance check

// NewTokenRepository stores revoked JWT IDs in the `revoked_tokens` table.
func NewTokenRepository(exec core.DBExecutor) *tokenRepository {
	return &tokenRepository{repository: repository{exec: exec}, nowFunc: time.Now}
}

func (repo tokenRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	e := repo.getExec(nil)

	// expired tokens are rejected anyway
	if _, err := execute(ctx, e, builder.Delete("revoked_tokens").Where(sq.Lt{"expires_at": repo.nowFunc().UTC()})); err != nil {
		return errors.Wrap(err, "purging revoked tokens")
	}

	q := builder.Insert("revoked_tokens").
		Columns("jti", "expires_at").
		Values(jti, expiresAt.UTC()).
		Suffix("ON CONFLICT (jti) DO NOTHING")
	if _, err := execute(ctx, e, q); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (repo tokenRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	if err := get(ctx, repo.getExec(nil), &count, builder.Select("COUNT(*)").From("revoked_tokens").Where(sq.Eq{"jti": jti})); err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return count > 0, nil
}
