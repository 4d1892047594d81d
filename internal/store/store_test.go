package store

import (
	"bytes"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tg-archive/tgkeeper/internal/types"
)

func setupTestStore(t *testing.T) (*Store, string, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "tgkeeper_test_*.sqlite")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	s, err := Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("failed to open store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.Remove(path)
	}
	return s, path, cleanup
}

// rawQuery opens an independent connection so tests can inspect what
// actually landed on disk.
func rawQuery(t *testing.T, path, query string, args ...interface{}) *sql.Rows {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open raw connection: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return rows
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()

	rows := rawQuery(t, path, "SELECT COUNT(*) FROM "+table)
	defer rows.Close()

	var n int
	if !rows.Next() {
		t.Fatal("count query returned no rows")
	}
	if err := rows.Scan(&n); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return n
}

func TestOpenIsIdempotent(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()
	s.Close()

	// Reopening against the existing schema must succeed.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	s2.Close()
}

func TestSaveMessage(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	msg := types.Message{
		ID:     1001,
		ChatID: 42,
		Date:   1700000000,
		Raw:    []byte("payload"),
	}
	if err := s.SaveMessage(msg, false, "chat_42/1001.jpg"); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if err := s.SaveMessage(msg, true, ""); err != nil {
		t.Fatalf("SaveMessage (edited) failed: %v", err)
	}

	rows := rawQuery(t, path, "SELECT chat_id, message_id, date, type, serialized, media_rel_path FROM events ORDER BY id")
	defer rows.Close()

	type row struct {
		chatID    sql.NullInt64
		messageID int64
		date      sql.NullInt64
		eventType string
		payload   []byte
		relPath   sql.NullString
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.chatID, &r.messageID, &r.date, &r.eventType, &r.payload, &r.relPath); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got = append(got, r)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].eventType != TypeMessageNew || got[1].eventType != TypeMessageEdited {
		t.Errorf("event types: got %q, %q", got[0].eventType, got[1].eventType)
	}
	if !got[0].relPath.Valid || got[0].relPath.String != "chat_42/1001.jpg" {
		t.Errorf("media path: got %+v, want chat_42/1001.jpg", got[0].relPath)
	}
	if got[1].relPath.Valid {
		t.Errorf("expected NULL media path for second event, got %q", got[1].relPath.String)
	}
	if !bytes.Equal(got[0].payload, []byte("payload")) {
		t.Errorf("payload mismatch: got %q", got[0].payload)
	}
	if got[0].chatID.Int64 != 42 || got[0].date.Int64 != 1700000000 {
		t.Errorf("chat/date mismatch: %+v", got[0])
	}
}

func TestSaveMessageRequiresChatID(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.SaveMessage(types.Message{ID: 5}, false, "")
	if err == nil {
		t.Fatal("expected error for message without chat id")
	}
	if n := countRows(t, path, "events"); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
}

func TestSaveDeletedWritesAllRows(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	ids := []int64{10, 11, 12}
	if err := s.SaveDeleted(ids); err != nil {
		t.Fatalf("SaveDeleted failed: %v", err)
	}

	rows := rawQuery(t, path, "SELECT chat_id, message_id, date, type, serialized, media_rel_path FROM events ORDER BY id")
	defer rows.Close()

	var got []int64
	for rows.Next() {
		var chatID, date sql.NullInt64
		var messageID int64
		var eventType string
		var payload []byte
		var relPath sql.NullString
		if err := rows.Scan(&chatID, &messageID, &date, &eventType, &payload, &relPath); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if eventType != TypeMessageDeleted {
			t.Errorf("event type: got %q, want %q", eventType, TypeMessageDeleted)
		}
		if chatID.Valid || date.Valid || payload != nil || relPath.Valid {
			t.Errorf("deletion row %d has non-NULL optional columns", messageID)
		}
		got = append(got, messageID)
	}

	if len(got) != len(ids) {
		t.Fatalf("expected %d rows, got %d", len(ids), len(got))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Errorf("row %d: got id %d, want %d", i, got[i], id)
		}
	}
}

func TestSaveDeletedFailureWritesNothing(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	// Force the batch to fail mid-flight: with the connection closed the
	// transaction can never commit.
	s.db.Close()

	if err := s.SaveDeleted([]int64{1, 2, 3}); err == nil {
		t.Fatal("expected error after close")
	}
	if n := countRows(t, path, "events"); n != 0 {
		t.Errorf("expected zero rows after failed batch, got %d", n)
	}
}

func TestMergeChatsDeduplicates(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	chat := types.Chat{ID: 42, Kind: types.KindGroup, Name: "Work", Raw: []byte("v1")}

	// First sighting persists.
	result, err := s.MergeChats([]types.Chat{chat})
	if err != nil {
		t.Fatalf("MergeChats failed: %v", err)
	}
	if _, ok := result[42]; !ok {
		t.Fatal("expected chat 42 in result mapping")
	}

	// Identical snapshot: no new write, mapping still complete.
	result, err = s.MergeChats([]types.Chat{chat})
	if err != nil {
		t.Fatalf("second MergeChats failed: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 chat, got %d", len(result))
	}

	// Changed bytes replace the stored snapshot.
	chat.Raw = []byte("v2")
	if _, err := s.MergeChats([]types.Chat{chat}); err != nil {
		t.Fatalf("third MergeChats failed: %v", err)
	}

	rows := rawQuery(t, path, "SELECT serialized FROM chats WHERE chat_id = 42")
	defer rows.Close()

	var stored [][]byte
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		stored = append(stored, b)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly one chat row, got %d", len(stored))
	}
	want := types.Chat{ID: 42, Kind: types.KindGroup, Raw: []byte("v2")}.Encode()
	if !bytes.Equal(stored[0], want) {
		t.Errorf("stored snapshot: got %q, want %q", stored[0], want)
	}
}

func TestMergeChatsReturnsUntouchedEntries(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()

	a := types.Chat{ID: 1, Kind: types.KindUser, Raw: []byte("alice")}
	b := types.Chat{ID: 2, Kind: types.KindGroup, Raw: []byte("group")}

	if _, err := s.MergeChats([]types.Chat{a, b}); err != nil {
		t.Fatalf("MergeChats failed: %v", err)
	}

	// Merging only one chat must still return both.
	result, err := s.MergeChats([]types.Chat{a})
	if err != nil {
		t.Fatalf("second MergeChats failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected full mapping of 2 chats, got %d", len(result))
	}
}

func TestChatCacheSurvivesRestart(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()

	chat := types.Chat{ID: 9, Kind: types.KindChannel, Raw: []byte("news channel")}
	if _, err := s.MergeChats([]types.Chat{chat}); err != nil {
		t.Fatalf("MergeChats failed: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	// The reloaded cache must dedup against the persisted bytes: merging
	// the same snapshot is a no-op.
	cached, ok := reopened.chats[9]
	if !ok {
		t.Fatal("expected chat 9 in reloaded cache")
	}
	if !bytes.Equal(cached.encoded, chat.Encode()) {
		t.Error("reloaded snapshot differs from what was written")
	}
	if cached.chat.Kind != types.KindChannel {
		t.Errorf("kind: got %v, want %v", cached.chat.Kind, types.KindChannel)
	}
}

func TestOpenFailsOnCorruptChatRow(t *testing.T) {
	s, path, cleanup := setupTestStore(t)
	defer cleanup()
	s.Close()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open raw connection: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO chats (chat_id, serialized) VALUES (1, ?)`, []byte{99}); err != nil {
		t.Fatalf("failed to plant corrupt row: %v", err)
	}
	db.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected Open to fail on undecodable chat snapshot")
	}
}
