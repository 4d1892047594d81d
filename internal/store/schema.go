package store

import (
	"database/sql"
	"fmt"

	. "github.com/tg-archive/tgkeeper/internal/logging"
)

// initSchema creates the archive tables. Safe to run on every startup.
func initSchema(db *sql.DB) error {
	L_debug("store: initializing schema")

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			chat_id INTEGER,
			message_id INTEGER NOT NULL,
			date INTEGER,
			type TEXT NOT NULL,
			serialized BLOB,
			media_rel_path TEXT
		)
	`); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			chat_id INTEGER PRIMARY KEY,
			serialized BLOB NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create chats table: %w", err)
	}

	L_debug("store: schema ready")
	return nil
}
