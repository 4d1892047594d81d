// Package types holds the tgkeeper domain model: chats, messages,
// media attachments and the update stream variants.
package types

import "fmt"

// ChatKind identifies the kind of conversation a chat id refers to.
// Its value doubles as the leading byte of a chat snapshot's encoded form,
// so the constants are part of the on-disk format and must not be reordered.
type ChatKind byte

const (
	KindUser    ChatKind = 0
	KindGroup   ChatKind = 1
	KindChannel ChatKind = 2
)

// String returns the kind name for logs.
func (k ChatKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindGroup:
		return "group"
	case KindChannel:
		return "channel"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Chat is one conversation entity as last seen on the update stream.
// Raw carries the client's serialized snapshot of the chat object; the
// archive treats it as opaque bytes and compares snapshots byte-for-byte.
type Chat struct {
	ID   int64
	Kind ChatKind
	Name string
	Raw  []byte
}

// Encode returns the persistent form of the snapshot: the kind byte
// followed by the raw snapshot bytes.
func (c Chat) Encode() []byte {
	buf := make([]byte, 0, len(c.Raw)+1)
	buf = append(buf, byte(c.Kind))
	return append(buf, c.Raw...)
}

// DecodeChat reverses Encode. The chat name is not part of the encoded
// form; callers that need it re-derive it from the raw snapshot.
func DecodeChat(id int64, data []byte) (Chat, error) {
	if len(data) == 0 {
		return Chat{}, fmt.Errorf("chat %d: empty snapshot", id)
	}
	kind := ChatKind(data[0])
	switch kind {
	case KindUser, KindGroup, KindChannel:
	default:
		return Chat{}, fmt.Errorf("chat %d: unknown chat kind %d", id, data[0])
	}
	return Chat{
		ID:   id,
		Kind: kind,
		Raw:  data[1:],
	}, nil
}
