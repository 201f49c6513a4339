package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/wichtelbot/internal/models"
)

// saveGroups inserts groups with their participants and restrictions.
func saveGroups(ctx context.Context, tx *sql.Tx, groups map[string]*models.Group) error {
	groupStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO groups (name, owner_id, state, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare group insert: %w", err)
	}
	defer groupStmt.Close()

	participantStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO participants (group_name, user_id, display_name, position, joined_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare participant insert: %w", err)
	}
	defer participantStmt.Close()

	restrictionStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO restrictions (group_name, giver_id, recipient_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare restriction insert: %w", err)
	}
	defer restrictionStmt.Close()

	for _, group := range groups {
		if _, err := groupStmt.ExecContext(ctx,
			group.Name, group.OwnerID, string(group.State), group.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert group %s: %w", group.Name, err)
		}

		for i, p := range group.Participants {
			if _, err := participantStmt.ExecContext(ctx,
				group.Name, p.UserID, p.DisplayName, i, p.JoinedAt,
			); err != nil {
				return fmt.Errorf("failed to insert participant %s: %w", p.UserID, err)
			}
		}

		for giver, forbidden := range group.Restrictions {
			for _, recipient := range forbidden {
				if _, err := restrictionStmt.ExecContext(ctx, group.Name, giver, recipient); err != nil {
					return fmt.Errorf("failed to insert restriction: %w", err)
				}
			}
		}
	}
	return nil
}

// loadGroups reads groups, then attaches participants and restrictions.
func (s *SQLiteStore) loadGroups(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, owner_id, state, created_at FROM groups ORDER BY name")
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, ownerID, state string
			createdAt            int64
		)
		if err := rows.Scan(&name, &ownerID, &state, &createdAt); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		group := models.NewGroup(name, ownerID, createdAt)
		group.State = models.GroupState(state)
		snap.Groups[name] = group
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate groups: %w", err)
	}

	participantRows, err := s.db.QueryContext(ctx,
		"SELECT group_name, user_id, display_name, joined_at FROM participants ORDER BY group_name, position")
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer participantRows.Close()

	for participantRows.Next() {
		var groupName string
		var p models.Participant
		if err := participantRows.Scan(&groupName, &p.UserID, &p.DisplayName, &p.JoinedAt); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if group, ok := snap.Groups[groupName]; ok {
			group.Participants = append(group.Participants, p)
		}
	}
	if err := participantRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	restrictionRows, err := s.db.QueryContext(ctx,
		"SELECT group_name, giver_id, recipient_id FROM restrictions")
	if err != nil {
		return fmt.Errorf("failed to get restrictions: %w", err)
	}
	defer restrictionRows.Close()

	for restrictionRows.Next() {
		var groupName, giver, recipient string
		if err := restrictionRows.Scan(&groupName, &giver, &recipient); err != nil {
			return fmt.Errorf("failed to scan restriction: %w", err)
		}
		if group, ok := snap.Groups[groupName]; ok {
			group.Restrictions.Add(giver, recipient)
		}
	}
	if err := restrictionRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate restrictions: %w", err)
	}

	return nil
}
