package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"
)

// RevokedTokenRepository is the durable ledger of invalidated refresh tokens.
// The token column carries a unique index, so revoking the same token twice
// surfaces ErrDuplicate instead of inserting a second row.
type RevokedTokenRepository struct {
	db *sql.DB
}

func NewRevokedTokenRepository(db *sql.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

func (r *RevokedTokenRepository) Create(ctx context.Context, token *entity.RevokedToken) error {
	query := `
		INSERT INTO revoked_tokens (token, user_id, reason, revoked_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.Reason,
		token.RevokedAt,
		token.ExpiresAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

func (r *RevokedTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RevokedToken, error) {
	query := `
		SELECT id, token, user_id, reason, revoked_at, expires_at
		FROM revoked_tokens WHERE token = ?
	`
	rt := &entity.RevokedToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.UserID,
		&rt.Reason,
		&rt.RevokedAt,
		&rt.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = ?)`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

func (r *RevokedTokenRepository) FindByUserID(ctx context.Context, userID uint64) ([]entity.RevokedToken, error) {
	query := `
		SELECT id, token, user_id, reason, revoked_at, expires_at
		FROM revoked_tokens WHERE user_id = ? ORDER BY revoked_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []entity.RevokedToken
	for rows.Next() {
		rt := entity.RevokedToken{}
		if err := rows.Scan(
			&rt.ID,
			&rt.Token,
			&rt.UserID,
			&rt.Reason,
			&rt.RevokedAt,
			&rt.ExpiresAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, rt)
	}
	return tokens, rows.Err()
}

func (r *RevokedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < ?`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
