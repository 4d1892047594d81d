// Package store persists the archive: an append-only event log and the
// chat snapshot cache, both in a single sqlite database.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/types"
)

// Event type strings as written to the events table.
const (
	TypeMessageNew     = "message_new"
	TypeMessageEdited  = "message_edited"
	TypeMessageDeleted = "message_deleted"
)

const sqlInsertEvent = `INSERT INTO events (chat_id, message_id, date, type, serialized, media_rel_path)
	VALUES (?, ?, ?, ?, ?, ?)`

// cachedChat pairs a decoded chat with the exact bytes it was persisted
// with, so MergeChats can compare snapshots without re-encoding.
type cachedChat struct {
	chat    types.Chat
	encoded []byte
}

// Store owns the sqlite database. It is written from a single goroutine;
// no internal locking.
type Store struct {
	db    *sql.DB
	chats map[int64]cachedChat
}

// Open opens (or creates) the database at path, ensures the schema and
// loads the full chat cache. A chat row that fails to decode aborts Open:
// a partial cache would make later snapshot comparisons meaningless.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:    db,
		chats: make(map[int64]cachedChat),
	}
	if err := s.loadChats(); err != nil {
		db.Close()
		return nil, err
	}

	L_info("store: opened", "path", path, "chats", len(s.chats))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMessage appends one new/edited event. The media relative path is
// recorded as given, even though the download may still be in flight.
func (s *Store) SaveMessage(msg types.Message, edited bool, mediaRelPath string) error {
	if msg.ChatID == 0 {
		return fmt.Errorf("save message %d: no chat id", msg.ID)
	}

	eventType := TypeMessageNew
	if edited {
		eventType = TypeMessageEdited
	}

	var date interface{}
	if msg.Date != 0 {
		date = msg.Date
	}
	var relPath interface{}
	if mediaRelPath != "" {
		relPath = mediaRelPath
	}

	if _, err := s.db.Exec(sqlInsertEvent,
		msg.ChatID, msg.ID, date, eventType, msg.Raw, relPath,
	); err != nil {
		return fmt.Errorf("save message %d: %w", msg.ID, err)
	}
	return nil
}

// SaveDeleted appends one deletion event per id, atomically. The remote
// protocol reports no chat id for deletions, so every other column is NULL.
func (s *Store) SaveDeleted(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save deleted: begin: %w", err)
	}

	for _, id := range ids {
		if _, err := tx.Exec(sqlInsertEvent,
			nil, id, nil, TypeMessageDeleted, nil, nil,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("save deleted %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save deleted: commit: %w", err)
	}
	return nil
}
