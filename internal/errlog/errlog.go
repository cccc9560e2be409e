// Package errlog writes diagnostic rows to the order_error_logs table.
// Writes are best effort: a failure to record an error is logged locally and
// never surfaced, so it cannot mask the error being reported.
package errlog

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Log(ctx context.Context, code, message string, logCtx map[string]any, userID string) {
	if s == nil || s.db == nil {
		return
	}

	ctxJSON, err := json.Marshal(logCtx)
	if err != nil {
		log.Warn().Err(err).Str("error_code", code).Msg("errlog: failed to marshal context")
		ctxJSON = nil
	}

	query := `
		INSERT INTO order_error_logs (error_code, error_message, context, user_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`
	if _, err := s.db.Exec(ctx, query, code, message, ctxJSON, userID); err != nil {
		log.Warn().Err(err).Str("error_code", code).Msg("errlog: failed to write error log")
	}
}
