package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/visa-portal/internal/model"
)

// TokenRepo persists the one-row-per-user session tokens. user_id carries a
// unique key, so every write is a single upsert.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// UpsertPair stores both tokens, creating the row on first login.
func (r *TokenRepo) UpsertPair(ctx context.Context, userID uint64, authToken, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, auth_token, refresh_token) VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE auth_token=VALUES(auth_token), refresh_token=VALUES(refresh_token)`,
		userID, authToken, refreshToken)
	return err
}

// UpsertAuth replaces only the auth token and leaves any refresh token alone.
func (r *TokenRepo) UpsertAuth(ctx context.Context, userID uint64, authToken string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, auth_token) VALUES (?,?)
		ON DUPLICATE KEY UPDATE auth_token=VALUES(auth_token)`,
		userID, authToken)
	return err
}

// GetByUserID loads the user's token row.
func (r *TokenRepo) GetByUserID(ctx context.Context, userID uint64) (model.UserToken, error) {
	var t model.UserToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, COALESCE(auth_token,''), COALESCE(refresh_token,''), created_at, updated_at
		FROM user_tokens WHERE user_id=? LIMIT 1`, userID).
		Scan(&t.ID, &t.UserID, &t.AuthToken, &t.RefreshToken, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// DeleteByUserID removes the user's session row; ErrNotFound when there was none.
func (r *TokenRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE user_id=?", userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
