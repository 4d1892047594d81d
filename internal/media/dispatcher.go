// Package media classifies message attachments and fetches their bytes to
// the media tree on disk. Downloads are fire-and-forget: the dispatcher
// returns as soon as the destination path is computed and the fetch is
// scheduled, so callers record the path before the bytes exist.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/types"
)

// Downloader turns an opaque file reference into a byte stream. A zero
// reference (e.g. a contact card) must fail with an error.
type Downloader interface {
	Open(ref types.FileRef) (io.ReadCloser, error)
}

// Dispatcher writes media files under root, one subdirectory per chat.
type Dispatcher struct {
	root string
	dl   Downloader
}

// NewDispatcher creates a Dispatcher rooted at the media directory.
func NewDispatcher(root string, dl Downloader) *Dispatcher {
	return &Dispatcher{root: root, dl: dl}
}

// Dispatch classifies the message's attachment and schedules background
// fetches for the primary file and, where eligible, its best thumbnail.
// It returns the primary file's relative path, or "" when the message
// carries nothing downloadable. Only directory creation can fail here;
// fetch failures are logged by the background work itself.
func (d *Dispatcher) Dispatch(msg types.Message) (string, error) {
	if msg.Media == nil || msg.ChatID == 0 {
		return "", nil
	}

	var (
		ext   string
		file  types.FileRef
		thumb *types.Thumb
	)

	switch m := msg.Media.(type) {
	case types.Photo:
		ext = "jpg"
		file = m.File
	case types.Sticker:
		ext = stickerExt(m)
		file = m.File
		thumb = PickThumb(m.Thumbs)
	case types.Document:
		ext = documentExt(m)
		file = m.File
		thumb = PickThumb(m.Thumbs)
	case types.Contact:
		ext = "vcf"
	default:
		return "", nil
	}

	fileName := fmt.Sprintf("%d.%s", msg.ID, ext)
	chatDir := fmt.Sprintf("chat_%d", msg.ChatID)

	relPath := filepath.Join(chatDir, fileName)
	if err := d.schedule(file, relPath); err != nil {
		return "", err
	}

	if thumb != nil {
		thumbRel := filepath.Join(chatDir, fileName+"_thumb.jpg")
		if err := d.schedule(thumb.File, thumbRel); err != nil {
			return "", err
		}
	}

	return relPath, nil
}

// schedule prepares the destination and starts the background fetch.
func (d *Dispatcher) schedule(ref types.FileRef, relPath string) error {
	absPath := filepath.Join(d.root, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create media directory for %s: %w", relPath, err)
	}

	L_info("media: downloading", "path", relPath)
	if _, err := os.Stat(absPath); err == nil {
		L_info("media: file already exists, overwriting", "path", relPath)
	}

	go d.fetch(ref, relPath, absPath)
	return nil
}

// fetch runs in its own goroutine; failures are logged and abandoned.
func (d *Dispatcher) fetch(ref types.FileRef, relPath, absPath string) {
	if err := d.fetchTo(ref, absPath); err != nil {
		L_error("media: download failed", "path", relPath, "error", err)
		return
	}
	L_info("media: downloaded", "path", relPath)
}

func (d *Dispatcher) fetchTo(ref types.FileRef, absPath string) error {
	src, err := d.dl.Open(ref)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(absPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
