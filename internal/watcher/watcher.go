// Package watcher runs the single-consumer update loop: it pulls decoded
// updates from the stream and sequences them into the chat cache, the
// event store and the media dispatcher, checkpointing session state as it
// goes. No two updates are ever processed concurrently; event rows land in
// exact arrival order.
package watcher

import (
	"context"
	"errors"
	"time"

	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/media"
	"github.com/tg-archive/tgkeeper/internal/store"
	"github.com/tg-archive/tgkeeper/internal/types"
)

// DefaultCheckpointInterval is how often session state is persisted while
// the loop is running.
const DefaultCheckpointInterval = 30 * time.Second

// Source produces the update stream. NextUpdate blocks until an update is
// available and must return promptly with ctx.Err() once ctx is cancelled;
// it is the loop's only suspension point.
type Source interface {
	NextUpdate(ctx context.Context) (types.Update, []types.Chat, error)
}

// SessionSaver persists session/connection state. Saves overwrite the
// whole state, so calling it repeatedly from different points is safe.
type SessionSaver interface {
	SaveSession() error
}

// Watcher is the update-loop supervisor.
type Watcher struct {
	src     Source
	store   *store.Store
	media   *media.Dispatcher
	session SessionSaver

	checkpointInterval time.Duration

	done   chan struct{}
	runErr error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithCheckpointInterval overrides the session checkpoint cadence.
func WithCheckpointInterval(d time.Duration) Option {
	return func(w *Watcher) { w.checkpointInterval = d }
}

// New wires a Watcher. The store and dispatcher are owned exclusively by
// the loop; they need no locking of their own.
func New(src Source, st *store.Store, md *media.Dispatcher, session SessionSaver, opts ...Option) *Watcher {
	w := &Watcher{
		src:                src,
		store:              st,
		media:              md,
		session:            session,
		checkpointInterval: DefaultCheckpointInterval,
		done:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes the update stream until ctx is cancelled or a storage
// failure aborts the loop. Cancellation surfacing from the pull is the
// normal shutdown path and returns nil. A final session checkpoint is
// written exactly once, after the loop has exited, whichever way it exited.
func (w *Watcher) Run(ctx context.Context) (err error) {
	defer func() {
		if saveErr := w.session.SaveSession(); saveErr != nil {
			if err == nil {
				err = saveErr
			} else {
				L_error("watcher: final session save failed", "error", saveErr)
			}
		}
	}()

	L_info("watcher: watching for updates")
	lastCheckpoint := time.Now()

	for ctx.Err() == nil {
		update, chats, err := w.src.NextUpdate(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				L_info("watcher: update stream interrupted, stopping")
				return nil
			}
			return err
		}

		chatMap, err := w.store.MergeChats(chats)
		if err != nil {
			return err
		}

		if err := w.handle(update, chatMap); err != nil {
			return err
		}

		if time.Since(lastCheckpoint) > w.checkpointInterval {
			if err := w.session.SaveSession(); err != nil {
				return err
			}
			lastCheckpoint = time.Now()
		}
	}

	return nil
}

// handle dispatches one update by kind.
func (w *Watcher) handle(update types.Update, chats map[int64]types.Chat) error {
	switch u := update.(type) {
	case types.NewMessage:
		L_info("new message: %s", types.Summary(u.Msg, chats))
		return w.saveMessage(u.Msg, false)

	case types.EditedMessage:
		L_info("message edited: %s", types.Summary(u.Msg, chats))
		return w.saveMessage(u.Msg, true)

	case types.DeletedMessages:
		L_info("message(s) deleted", "ids", u.IDs)
		return w.store.SaveDeleted(u.IDs)

	case types.UnknownUpdate:
		L_debug("unhandled update", "kind", u.Kind)
		return nil

	default:
		L_debug("unhandled update kind %T", update)
		return nil
	}
}

func (w *Watcher) saveMessage(msg types.Message, edited bool) error {
	relPath, err := w.media.Dispatch(msg)
	if err != nil {
		return err
	}
	return w.store.SaveMessage(msg, edited, relPath)
}

// Start runs the loop in its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		w.runErr = w.Run(ctx)
		close(w.done)
	}()
}

// Wait blocks until the loop started with Start has finished and returns
// its result. A forced abort during shutdown reports success.
func (w *Watcher) Wait() error {
	<-w.done
	return w.runErr
}
