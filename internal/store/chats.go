package store

import (
	"bytes"
	"fmt"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/types"
)

// loadChats fills the in-memory cache from the chats table.
func (s *Store) loadChats() error {
	rows, err := s.db.Query(`SELECT chat_id, serialized FROM chats`)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var encoded []byte
		if err := rows.Scan(&id, &encoded); err != nil {
			return fmt.Errorf("load chats: scan: %w", err)
		}
		chat, err := types.DecodeChat(id, encoded)
		if err != nil {
			return fmt.Errorf("load chats: %w", err)
		}
		s.chats[id] = cachedChat{chat: chat, encoded: encoded}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load chats: %w", err)
	}

	L_debug("store: chat cache loaded", "count", len(s.chats))
	return nil
}

// MergeChats folds the snapshots that accompanied an update into the
// cache. A snapshot is persisted only when its encoded bytes differ from
// the cached ones; the comparison is byte-exact on purpose, so two
// different serializations of the same logical state both count as a
// change. Returns the full current mapping, not just what changed.
func (s *Store) MergeChats(chats []types.Chat) (map[int64]types.Chat, error) {
	updated := 0

	for _, chat := range chats {
		encoded := chat.Encode()

		if cached, ok := s.chats[chat.ID]; ok && bytes.Equal(cached.encoded, encoded) {
			continue
		}

		L_debug("store: updating chat", "chatID", chat.ID, "kind", chat.Kind.String())
		if _, err := s.db.Exec(
			`INSERT OR REPLACE INTO chats (chat_id, serialized) VALUES (?, ?)`,
			chat.ID, encoded,
		); err != nil {
			return nil, fmt.Errorf("update chat %d: %w", chat.ID, err)
		}
		s.chats[chat.ID] = cachedChat{chat: chat, encoded: encoded}
		updated++
	}

	if updated > 0 {
		L_info("store: updated %d chats in cache", updated)
	}

	result := make(map[int64]types.Chat, len(s.chats))
	for id, cached := range s.chats {
		result[id] = cached.chat
	}
	return result, nil
}
