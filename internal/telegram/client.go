// Package telegram adapts a telebot long-polling client to the collaborator
// interfaces the archive core consumes: the update stream source, the media
// byte downloader and the session checkpoint saver.
package telegram

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/types"
)

const pollTimeout = 10 * time.Second

// streamItem is one decoded update plus the chat snapshots that came with it.
type streamItem struct {
	update types.Update
	chats  []types.Chat
}

// Client wraps a telebot bot and pumps its handler callbacks into a channel
// the watcher pulls from.
type Client struct {
	bot    *tele.Bot
	poller *tele.LongPoller

	sessionPath string
	updates     chan streamItem
}

// New connects to the Bot API and restores the session offset, so a restart
// resumes after the last confirmed update instead of replaying history.
func New(token, sessionPath string) (*Client, error) {
	poller := &tele.LongPoller{Timeout: pollTimeout}

	c := &Client{
		poller:      poller,
		sessionPath: sessionPath,
		updates:     make(chan streamItem, 64),
	}
	c.loadSession()

	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: poller,
	})
	if err != nil {
		return nil, err
	}
	c.bot = bot

	L_info("telegram: connected",
		"username", bot.Me.Username,
		"id", bot.Me.ID,
	)

	c.setupHandlers()
	return c, nil
}

// setupHandlers registers one handler per update kind the archive records.
func (c *Client) setupHandlers() {
	newMessage := func(tc tele.Context) error {
		c.push(types.NewMessage{Msg: convertMessage(tc.Message())}, tc.Message())
		return nil
	}
	editedMessage := func(tc tele.Context) error {
		c.push(types.EditedMessage{Msg: convertMessage(tc.Message())}, tc.Message())
		return nil
	}

	for _, endpoint := range []string{
		tele.OnText,
		tele.OnPhoto,
		tele.OnDocument,
		tele.OnSticker,
		tele.OnContact,
		tele.OnAudio,
		tele.OnVoice,
		tele.OnVideo,
		tele.OnVideoNote,
		tele.OnAnimation,
		tele.OnChannelPost,
	} {
		c.bot.Handle(endpoint, newMessage)
	}

	c.bot.Handle(tele.OnEdited, editedMessage)
	c.bot.Handle(tele.OnEditedChannelPost, editedMessage)

	// Kinds the archive does not record still flow through so the loop can
	// log them.
	c.bot.Handle(tele.OnPinned, func(tc tele.Context) error {
		c.push(types.UnknownUpdate{Kind: "pinned"}, tc.Message())
		return nil
	})
}

// push hands one update to the watcher, with the snapshots of every chat
// visible on the triggering message.
func (c *Client) push(update types.Update, msg *tele.Message) {
	c.updates <- streamItem{
		update: update,
		chats:  chatSnapshots(msg),
	}
}

// NextUpdate implements watcher.Source.
func (c *Client) NextUpdate(ctx context.Context) (types.Update, []types.Chat, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case item := <-c.updates:
		return item.update, item.chats, nil
	}
}

// Start begins long polling in the background.
func (c *Client) Start() {
	L_debug("telegram: starting long poller")
	go c.bot.Start()
}

// Stop shuts down the long poller.
func (c *Client) Stop() {
	c.bot.Stop()
	L_debug("telegram: poller stopped")
}
