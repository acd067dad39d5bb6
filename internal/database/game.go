// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/playdeck/uno/internal/cache"
)

// SaveGameSnapshot upserts the latest snapshot JSON for a game. The write is
// idempotent: persisting the same snapshot twice leaves the row identical, so
// the caller may fire-and-forget after every transition.
func SaveGameSnapshot(ctx context.Context, gameID uuid.UUID, status string, snapshot interface{}) error {
	if DB == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal game snapshot: %w", err)
	}
	q := `
		INSERT INTO games (id, status, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id)
		DO UPDATE SET status = EXCLUDED.status, state = EXCLUDED.state, updated_at = NOW()
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, gameID, status, data)
		return e
	})
}

// MarkGameAbandoned flags a game row whose session produced no actions within
// the historian's inactivity window.
func MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error {
	if DB == nil {
		return nil
	}
	q := `UPDATE games SET status = 'abandoned', updated_at = NOW() WHERE id = $1 AND status <> 'finished'`
	_, err := DB.Exec(ctx, q, gameID)
	return err
}

// InsertActionRecords batch-inserts historian action records in one
// transaction. Conflicts on (game_id, action_index) are ignored so a replayed
// queue segment cannot duplicate history.
func InsertActionRecords(ctx context.Context, records []cache.GameActionRecord) error {
	if DB == nil || len(records) == 0 {
		return nil
	}
	q := `
		INSERT INTO game_actions (game_id, action_index, actor_id, action_type, payload, ts)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6 / 1000.0))
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("failed to marshal action payload: %w", err)
			}
			if _, err := tx.Exec(ctx, q,
				rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, payload, rec.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
}
