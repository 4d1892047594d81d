package telegram

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tg-archive/tgkeeper/internal/types"
)

// downloadTimeout bounds a whole file fetch, not one read.
const downloadTimeout = 5 * time.Minute

// Open implements media.Downloader: it resolves the file reference through
// the Bot API and returns the download stream.
func (c *Client) Open(ref types.FileRef) (io.ReadCloser, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("no remote byte source for this media")
	}

	fileInfo, err := c.bot.FileByID(ref.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", ref.ID, err)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.bot.URL, c.bot.Token, fileInfo.FilePath)

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", ref.ID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch file %s: status %d", ref.ID, resp.StatusCode)
	}

	return resp.Body, nil
}
