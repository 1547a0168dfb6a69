package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upSeedWorkspaces, downSeedWorkspaces)
}

func upSeedWorkspaces(tx *sql.Tx) error {
	workspaces := []struct {
		name        string
		description string
		category    string
		capacity    int
		hourlyRate  string
	}{
		{"Hot Desk 1", "Open-plan desk near the window", "desk", 1, "5.00"},
		{"Hot Desk 2", "Open-plan desk near the cafe", "desk", 1, "5.00"},
		{"Hot Desk 3", "Quiet corner desk", "desk", 1, "5.00"},
		{"Focus Room", "Small meeting room for up to 4 people", "meeting_room", 4, "20.00"},
		{"Boardroom", "Large meeting room with projector", "meeting_room", 10, "40.00"},
	}

	for _, w := range workspaces {
		var count int
		err := tx.QueryRow("SELECT COUNT(*) FROM workspaces WHERE name = $1", w.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check workspace %s: %w", w.name, err)
		}
		if count > 0 {
			continue
		}

		query := `
			INSERT INTO workspaces (name, description, category, capacity, hourly_rate, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, NOW(), NOW())
		`
		if _, err := tx.Exec(query, w.name, w.description, w.category, w.capacity, w.hourlyRate); err != nil {
			return fmt.Errorf("failed to seed workspace %s: %w", w.name, err)
		}
	}

	return nil
}

func downSeedWorkspaces(tx *sql.Tx) error {
	names := []string{"Hot Desk 1", "Hot Desk 2", "Hot Desk 3", "Focus Room", "Boardroom"}
	for _, name := range names {
		if _, err := tx.Exec("DELETE FROM workspaces WHERE name = $1", name); err != nil {
			return fmt.Errorf("failed to remove workspace %s: %w", name, err)
		}
	}
	return nil
}
