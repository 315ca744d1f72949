package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/focusflow/internal/persistence"
)

// TokenRepository implements persistence.AuthTokenRepository using SQLite.
type TokenRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTokenRepository creates a new SQLite auth token repository.
func NewTokenRepository(pool *ConnectionPool) *TokenRepository {
	return &TokenRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const tokenColumns = `token, user_id, created_at, expires_at, revoked_at`

// CreateToken stores a newly issued token.
func (r *TokenRepository) CreateToken(ctx context.Context, token persistence.AuthToken) (persistence.AuthToken, error) {
	token.Token = strings.TrimSpace(token.Token)
	if token.Token == "" || token.UserID == "" {
		return persistence.AuthToken{}, persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO auth_tokens (`+tokenColumns+`) VALUES (?, ?, ?, ?, ?)`,
		token.Token,
		token.UserID,
		formatTime(token.CreatedAt),
		formatTime(token.ExpiresAt),
		nullTime(token.RevokedAt),
	)
	if err != nil {
		return persistence.AuthToken{}, r.mapper.Wrap(err, "failed to insert auth token")
	}
	return cloneToken(token), nil
}

// GetToken retrieves a token by its value.
func (r *TokenRepository) GetToken(ctx context.Context, token string) (persistence.AuthToken, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.AuthToken{}, persistence.ErrNotFound
	}
	return r.getToken(ctx, r.helper.QueryRow(ctx, `SELECT `+tokenColumns+` FROM auth_tokens WHERE token = ?`, normalized))
}

// RevokeToken stamps revokedAt on the token. Revoking twice keeps the first
// timestamp.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthToken, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.AuthToken{}, persistence.ErrNotFound
	}

	var revoked persistence.AuthToken
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx,
			`UPDATE auth_tokens SET revoked_at = COALESCE(revoked_at, ?) WHERE token = ?`,
			formatTime(revokedAt), normalized)
		if err != nil {
			return r.mapper.Wrap(err, "failed to revoke auth token")
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		row := r.helper.QueryRowTx(ctx, tx, `SELECT `+tokenColumns+` FROM auth_tokens WHERE token = ?`, normalized)
		revoked, err = r.getToken(ctx, row)
		return err
	})
	if err != nil {
		return persistence.AuthToken{}, err
	}
	return revoked, nil
}

// DeleteExpiredTokens removes tokens that expired on or before reference.
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= ?`, formatTime(reference))
	return r.mapper.Wrap(err, "failed to delete expired auth tokens")
}

func (r *TokenRepository) getToken(_ context.Context, row rowScanner) (persistence.AuthToken, error) {
	var (
		token                persistence.AuthToken
		createdAt, expiresAt string
		revokedAt            sql.NullString
	)
	if err := row.Scan(&token.Token, &token.UserID, &createdAt, &expiresAt, &revokedAt); err != nil {
		return persistence.AuthToken{}, r.mapper.Wrap(err, "failed to load auth token")
	}

	var err error
	if token.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.AuthToken{}, err
	}
	if token.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.AuthToken{}, err
	}
	if token.RevokedAt, err = parseNullTime("revoked_at", revokedAt); err != nil {
		return persistence.AuthToken{}, err
	}
	return token, nil
}

func cloneToken(token persistence.AuthToken) persistence.AuthToken {
	clone := token
	clone.CreatedAt = token.CreatedAt.UTC()
	clone.ExpiresAt = token.ExpiresAt.UTC()
	if token.RevokedAt != nil {
		revoked := token.RevokedAt.UTC()
		clone.RevokedAt = &revoked
	}
	return clone
}
