package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// FCMTokenRepository keeps push tokens registered by user devices.
type FCMTokenRepository struct {
	DB      *sql.DB
	Dialect string
}

func NewFCMTokenRepository(db *sql.DB, dialect string) *FCMTokenRepository {
	return &FCMTokenRepository{DB: db, Dialect: dialect}
}

func (r *FCMTokenRepository) TokensByUser(ctx context.Context, userID int64) ([]string, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	rows, err := r.DB.QueryContext(ctx, rebind(r.Dialect, `SELECT token FROM notify_tokens WHERE user_id = ?`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Upsert binds token to userID. A token that moved to another account is reassigned.
func (r *FCMTokenRepository) Upsert(ctx context.Context, userID int64, token string) error {
	query := `INSERT INTO notify_tokens (user_id, token) VALUES (?, ?) ON CONFLICT (token) DO UPDATE SET user_id = excluded.user_id`
	if r.Dialect == DialectMySQL {
		query = `INSERT INTO notify_tokens (user_id, token) VALUES (?, ?) ON DUPLICATE KEY UPDATE user_id = VALUES(user_id)`
	}
	_, err := r.DB.ExecContext(ctx, rebind(r.Dialect, query), userID, token)
	return err
}

func (r *FCMTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, rebind(r.Dialect, `DELETE FROM notify_tokens WHERE token = ?`), token)
	return err
}
