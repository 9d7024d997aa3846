package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"receiptbook/api/internal/models"
)

var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExists   = errors.New("refresh token already exists")
)

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (token, user_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, FALSE, NOW())
	`

	_, err := r.pool.Exec(ctx, query, token.Token, token.UserID, token.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrTokenExists
		}
		return err
	}
	return nil
}

// FindActive returns the token row only while it is usable: unexpired
// and unrevoked.
func (r *RefreshTokenRepository) FindActive(ctx context.Context, token string) (models.RefreshToken, error) {
	const query = `
		SELECT id, token, user_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked = FALSE AND expires_at > NOW()
	`

	var rt models.RefreshToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.UserID,
		&rt.ExpiresAt,
		&rt.Revoked,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return rt, nil
}

// Revoke is best-effort: revoking an unknown or already-revoked token
// is not an error. Revocation is terminal, there is no un-revoke.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= NOW() OR revoked = TRUE`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
