package media

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tg-archive/tgkeeper/internal/types"
)

const fallbackExt = "bin"

// documentExt picks the archive extension for a generic document: the
// filename's own extension wins, then the MIME type, then "bin".
func documentExt(doc types.Document) string {
	if doc.FileName != "" {
		if ext := strings.TrimPrefix(filepath.Ext(doc.FileName), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	if doc.MIME != "" {
		if m := mimetype.Lookup(doc.MIME); m != nil {
			if ext := strings.TrimPrefix(m.Extension(), "."); ext != "" {
				return ext
			}
		}
	}
	return fallbackExt
}

// stickerExt distinguishes animated stickers from static ones.
func stickerExt(s types.Sticker) string {
	if s.Animated {
		return "tgs"
	}
	return "webp"
}
