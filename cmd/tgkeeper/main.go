// tgkeeper archives a Telegram update stream: messages, edits and
// deletions into an append-only sqlite log, media onto disk.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/tg-archive/tgkeeper/internal/config"
	. "github.com/tg-archive/tgkeeper/internal/logging"
	"github.com/tg-archive/tgkeeper/internal/media"
	"github.com/tg-archive/tgkeeper/internal/store"
	"github.com/tg-archive/tgkeeper/internal/telegram"
	"github.com/tg-archive/tgkeeper/internal/watcher"
)

const version = "0.3.0"

const (
	dbFile      = "tgkeeper.sqlite"
	sessionFile = "tgkeeper.session"
	mediaSubdir = "media"
)

var cli struct {
	Config  string           `help:"Path to the config file." default:"config.toml"`
	Data    string           `help:"Override the data directory from the config."`
	Debug   bool             `help:"Enable debug logging."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("tgkeeper"),
		kong.Description("Archive a Telegram account's update stream."),
		kong.Vars{"version": "tgkeeper " + version},
	)

	level := LevelInfo
	if cli.Debug {
		level = LevelDebug
	}
	Init(&Config{Level: level, TimeFormat: "15:04:05"})

	L_info("tgkeeper starting", "version", version, "run", uuid.NewString()[:8])

	cfg, err := config.Load(cli.Config)
	if err != nil {
		L_fatal("failed to load config: %v", err)
	}
	if !cli.Debug {
		SetLevel(ParseLevel(cfg.LogLevel))
	}

	dataDir := cfg.DataDir
	if cli.Data != "" {
		dataDir = cli.Data
	}
	mediaDir := filepath.Join(dataDir, mediaSubdir)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		L_fatal("failed to create data directories: %v", err)
	}

	st, err := store.Open(filepath.Join(dataDir, dbFile))
	if err != nil {
		L_fatal("failed to open archive: %v", err)
	}
	defer st.Close()

	client, err := telegram.New(cfg.BotToken, filepath.Join(dataDir, sessionFile))
	if err != nil {
		L_fatal("failed to connect to Telegram: %v", err)
	}

	dispatcher := media.NewDispatcher(mediaDir, client)
	w := watcher.New(client, st, dispatcher, client,
		watcher.WithCheckpointInterval(time.Duration(cfg.CheckpointSeconds)*time.Second),
	)

	// Cancellation stops the loop cooperatively once per iteration and
	// preemptively interrupts the pull it may be blocked in.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client.Start()
	w.Start(ctx)

	err = w.Wait()
	stop()
	client.Stop()

	if err != nil {
		L_fatal("watcher failed: %v", err)
	}
	L_info("tgkeeper stopped")
}
