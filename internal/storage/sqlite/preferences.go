package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/wichtelbot/internal/models"
)

func savePreferences(ctx context.Context, tx *sql.Tx, preferences map[string]string) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO preferences (user_id, wish) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare preference insert: %w", err)
	}
	defer stmt.Close()

	for userID, wish := range preferences {
		if _, err := stmt.ExecContext(ctx, userID, wish); err != nil {
			return fmt.Errorf("failed to insert preference: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadPreferences(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, wish FROM preferences")
	if err != nil {
		return fmt.Errorf("failed to get preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, wish string
		if err := rows.Scan(&userID, &wish); err != nil {
			return fmt.Errorf("failed to scan preference: %w", err)
		}
		snap.Preferences[userID] = wish
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return nil
}
