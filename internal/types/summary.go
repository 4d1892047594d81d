package types

import (
	"fmt"
	"strings"
)

// Summary renders a one-line log description of a message, resolving the
// chat name through the current chat mapping.
func Summary(msg Message, chats map[int64]Chat) string {
	if msg.ChatID == 0 {
		return "[unknown chat]: <no message data>"
	}

	text := msg.Text
	if text == "" {
		if msg.Media != nil {
			text = fmt.Sprintf("<%s>", describeMedia(msg.Media))
		} else {
			text = "<empty message>"
		}
	}

	chatName := "<no name>"
	if chat, ok := chats[msg.ChatID]; ok && chat.Name != "" {
		chatName = chat.Name
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	first := strings.TrimSpace(lines[0])
	if first == "" {
		first = "<no message>"
	}
	if len(lines) > 1 {
		first += " ..."
	}

	return fmt.Sprintf("%s (#%d): %s", chatName, msg.ChatID, first)
}

func describeMedia(m Media) string {
	switch m.(type) {
	case Photo:
		return "photo"
	case Sticker:
		return "sticker"
	case Document:
		return "document"
	case Contact:
		return "contact"
	default:
		return "media"
	}
}
