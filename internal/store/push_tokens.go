package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PushTokensStore struct {
	db *pgxpool.Pool
}

// AddOrUpdate upserts a device token for the user. Registering a token is
// what marks notification permission as granted for that device.
func (s *PushTokensStore) AddOrUpdate(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		INSERT INTO user_push_tokens (user_id, push_token, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, push_token)
		DO UPDATE SET last_updated = NOW()
	`
	_, err := s.db.Exec(ctx, q, userID, token)
	return err
}

func (s *PushTokensStore) Remove(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `DELETE FROM user_push_tokens WHERE user_id = $1 AND push_token = $2`
	_, err := s.db.Exec(ctx, q, userID, token)
	return err
}

func (s *PushTokensStore) GetTokens(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT push_token FROM user_push_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
