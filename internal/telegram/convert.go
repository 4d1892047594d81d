package telegram

import (
	"encoding/json"
	"strings"

	tele "gopkg.in/telebot.v4"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/types"
)

// convertMessage maps a telebot message into the archive's domain message.
// The raw payload is the JSON form of the full message object.
func convertMessage(msg *tele.Message) types.Message {
	if msg == nil {
		return types.Message{}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		// Marshalling a telebot message cannot realistically fail, but an
		// event without a payload is still worth recording.
		L_warn("telegram: failed to serialize message", "id", msg.ID, "error", err)
		raw = nil
	}

	out := types.Message{
		ID:    int64(msg.ID),
		Date:  msg.Unixtime,
		Text:  messageText(msg),
		Raw:   raw,
		Media: convertMedia(msg),
	}
	if msg.Chat != nil {
		out.ChatID = msg.Chat.ID
	}
	return out
}

func messageText(msg *tele.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// convertMedia maps the attachment into the closed media union. Bot API
// attachment kinds with no byte source worth archiving (polls, locations,
// venues, dice) yield nil.
func convertMedia(msg *tele.Message) types.Media {
	switch {
	case msg.Photo != nil:
		return types.Photo{File: fileRef(msg.Photo.File)}

	case msg.Sticker != nil:
		return types.Sticker{
			Animated: msg.Sticker.Animated,
			File:     fileRef(msg.Sticker.File),
			Thumbs:   thumbOf(msg.Sticker.Thumbnail),
		}

	case msg.Document != nil:
		return types.Document{
			FileName: msg.Document.FileName,
			MIME:     msg.Document.MIME,
			File:     fileRef(msg.Document.File),
			Thumbs:   thumbOf(msg.Document.Thumbnail),
		}

	case msg.Audio != nil:
		return types.Document{
			FileName: msg.Audio.FileName,
			MIME:     msg.Audio.MIME,
			File:     fileRef(msg.Audio.File),
			Thumbs:   thumbOf(msg.Audio.Thumbnail),
		}

	case msg.Voice != nil:
		return types.Document{
			MIME: msg.Voice.MIME,
			File: fileRef(msg.Voice.File),
		}

	case msg.Video != nil:
		return types.Document{
			FileName: msg.Video.FileName,
			MIME:     msg.Video.MIME,
			File:     fileRef(msg.Video.File),
			Thumbs:   thumbOf(msg.Video.Thumbnail),
		}

	case msg.VideoNote != nil:
		return types.Document{
			File:   fileRef(msg.VideoNote.File),
			Thumbs: thumbOf(msg.VideoNote.Thumbnail),
		}

	case msg.Animation != nil:
		return types.Document{
			FileName: msg.Animation.FileName,
			MIME:     msg.Animation.MIME,
			File:     fileRef(msg.Animation.File),
			Thumbs:   thumbOf(msg.Animation.Thumbnail),
		}

	case msg.Contact != nil:
		return types.Contact{}

	default:
		return nil
	}
}

func fileRef(f tele.File) types.FileRef {
	return types.FileRef{ID: f.FileID}
}

// thumbOf wraps the single thumbnail the Bot API exposes. The richer
// variant metadata (stripped previews, outline placeholders) only exists on
// the MTProto transport; over the Bot API every thumbnail is a plain photo.
func thumbOf(p *tele.Photo) []types.Thumb {
	if p == nil || p.FileID == "" {
		return nil
	}
	return []types.Thumb{{
		Width: p.Width,
		File:  fileRef(p.File),
	}}
}

// chatSnapshots collects the chats visible on a message: the owning chat
// plus, for forwards, the origin chat.
func chatSnapshots(msg *tele.Message) []types.Chat {
	if msg == nil {
		return nil
	}

	var chats []types.Chat
	if snap, ok := chatSnapshot(msg.Chat); ok {
		chats = append(chats, snap)
	}
	if msg.OriginalChat != nil && (msg.Chat == nil || msg.OriginalChat.ID != msg.Chat.ID) {
		if snap, ok := chatSnapshot(msg.OriginalChat); ok {
			chats = append(chats, snap)
		}
	}
	return chats
}

func chatSnapshot(chat *tele.Chat) (types.Chat, bool) {
	if chat == nil {
		return types.Chat{}, false
	}

	raw, err := json.Marshal(chat)
	if err != nil {
		L_warn("telegram: failed to serialize chat", "id", chat.ID, "error", err)
		return types.Chat{}, false
	}

	return types.Chat{
		ID:   chat.ID,
		Kind: chatKind(chat.Type),
		Name: chatName(chat),
		Raw:  raw,
	}, true
}

func chatKind(t tele.ChatType) types.ChatKind {
	switch t {
	case tele.ChatPrivate:
		return types.KindUser
	case tele.ChatChannel, tele.ChatChannelPrivate:
		return types.KindChannel
	default:
		return types.KindGroup
	}
}

func chatName(chat *tele.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	name := strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	if name == "" {
		name = chat.Username
	}
	return name
}
