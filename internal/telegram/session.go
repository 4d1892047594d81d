package telegram

import (
	"encoding/json"
	"fmt"
	"os"

	. "github.com/tg-archive/tgkeeper/internal/logging"
)

// sessionState is what survives a restart: the last long-poll offset the
// archive has fully processed.
type sessionState struct {
	LastUpdateID int `json:"last_update_id"`
}

// loadSession restores the poller offset from the session file. A missing
// or unreadable file just means starting fresh.
func (c *Client) loadSession() {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		L_debug("telegram: no session to restore", "path", c.sessionPath)
		return
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		L_warn("telegram: ignoring corrupt session file", "path", c.sessionPath, "error", err)
		return
	}

	c.poller.LastUpdateID = state.LastUpdateID
	L_info("telegram: session restored", "lastUpdateID", state.LastUpdateID)
}

// SaveSession implements watcher.SessionSaver. The file is overwritten
// whole, so repeated saves from the periodic checkpoint and the final
// shutdown flush need no coordination.
func (c *Client) SaveSession() error {
	state := sessionState{LastUpdateID: c.poller.LastUpdateID}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := os.WriteFile(c.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("write session file %s: %w", c.sessionPath, err)
	}

	L_debug("telegram: session saved", "lastUpdateID", state.LastUpdateID)
	return nil
}
