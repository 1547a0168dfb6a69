package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upSeedPlansAndMenu, downSeedPlansAndMenu)
}

func upSeedPlansAndMenu(tx *sql.Tx) error {
	plans := []struct {
		name             string
		basePrice        string
		nftPrice         string
		meetingRoomHours string
		printingPages    int
		guestPasses      int
	}{
		{"Community", "99.00", "49.50", "2", 50, 1},
		{"Resident", "249.00", "124.50", "8", 200, 3},
		{"Studio", "499.00", "249.50", "20", 500, 10},
	}

	for _, p := range plans {
		var count int
		err := tx.QueryRow("SELECT COUNT(*) FROM membership_plans WHERE name = $1", p.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check plan %s: %w", p.name, err)
		}
		if count > 0 {
			continue
		}

		query := `
			INSERT INTO membership_plans (name, base_price, nft_price, meeting_room_hours, printing_pages, guest_passes, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, true, NOW(), NOW())
		`
		if _, err := tx.Exec(query, p.name, p.basePrice, p.nftPrice, p.meetingRoomHours, p.printingPages, p.guestPasses); err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", p.name, err)
		}
	}

	menuItems := []struct {
		name     string
		category string
		price    string
	}{
		{"Espresso", "coffee", "3.00"},
		{"Flat White", "coffee", "4.50"},
		{"Cold Brew", "coffee", "5.00"},
		{"Croissant", "pastry", "3.50"},
		{"Avocado Toast", "food", "9.00"},
		{"Grain Bowl", "food", "12.00"},
	}

	for _, m := range menuItems {
		var count int
		err := tx.QueryRow("SELECT COUNT(*) FROM menu_items WHERE name = $1", m.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check menu item %s: %w", m.name, err)
		}
		if count > 0 {
			continue
		}

		query := `
			INSERT INTO menu_items (name, description, category, price, is_available, created_at, updated_at)
			VALUES ($1, '', $2, $3, true, NOW(), NOW())
		`
		if _, err := tx.Exec(query, m.name, m.category, m.price); err != nil {
			return fmt.Errorf("failed to seed menu item %s: %w", m.name, err)
		}
	}

	return nil
}

func downSeedPlansAndMenu(tx *sql.Tx) error {
	for _, name := range []string{"Community", "Resident", "Studio"} {
		if _, err := tx.Exec("DELETE FROM membership_plans WHERE name = $1", name); err != nil {
			return fmt.Errorf("failed to remove plan %s: %w", name, err)
		}
	}
	for _, name := range []string{"Espresso", "Flat White", "Cold Brew", "Croissant", "Avocado Toast", "Grain Bowl"} {
		if _, err := tx.Exec("DELETE FROM menu_items WHERE name = $1", name); err != nil {
			return fmt.Errorf("failed to remove menu item %s: %w", name, err)
		}
	}
	return nil
}
