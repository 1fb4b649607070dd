package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jdelaire/autoreply/adapters/telegram_receiver"
	"github.com/jdelaire/autoreply/adapters/telegram_sender"
	"github.com/jdelaire/autoreply/core"
	"github.com/jdelaire/autoreply/core/configwatch"
	"github.com/jdelaire/autoreply/core/ops"
	"github.com/jdelaire/autoreply/core/policy"
	"github.com/jdelaire/autoreply/core/ratelimit"
	"github.com/jdelaire/autoreply/core/replies"
	"github.com/jdelaire/autoreply/internal/cli"
	"github.com/jdelaire/autoreply/internal/config"
	"github.com/jdelaire/autoreply/internal/credentials"
	"github.com/jdelaire/autoreply/internal/logging"
)

// app wires the bot together. The constructors are fields so tests can run
// startup without talking to Telegram.
type app struct {
	settings config.Settings
	stdout   io.Writer
	stderr   io.Writer

	newReceiver func(token string, handler core.MessageHandler, logger *slog.Logger) core.Receiver
	newSender   func(token string) core.Sender
}

func newApp(s config.Settings, stdout, stderr io.Writer) *app {
	return &app{
		settings: s,
		stdout:   stdout,
		stderr:   stderr,
		newReceiver: func(token string, handler core.MessageHandler, logger *slog.Logger) core.Receiver {
			return telegram_receiver.New(token, handler, logger)
		},
		newSender: func(token string) core.Sender {
			return telegram_sender.New(token)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := a.settings
	level, err := s.Level()
	if err != nil {
		return err
	}
	logger := logging.New(a.stderr, "autoreply", level)

	store := replies.NewStore(s.ReplyFile, logger.With(logging.ComponentKey, "replies"))
	router := replies.NewRouter(store.Load())

	src, err := credentials.Parse(s.TokenSource, s.TokenFile)
	if err != nil {
		cli.Fatal(a.stderr, err, "")
		return errReported
	}
	token, err := credentials.Resolve(ctx, src)
	if err != nil {
		cli.Fatal(a.stderr, err, tokenHint(src))
		return errReported
	}

	registry := ops.NewRegistry()
	if err := registry.Register(
		&ops.StartOp{ReplyFile: s.ReplyFile},
		&ops.HelpOp{Registry: registry},
		&ops.KeywordsOp{Router: router},
		&ops.StatusOp{Router: router},
	); err != nil {
		return fmt.Errorf("register ops: %w", err)
	}

	pol := policy.New(policy.Config{AllowedChats: s.AllowedChats, MaxAge: s.MaxAge})
	var limiter *ratelimit.Limiter
	if s.ReplyLimit > 0 {
		limiter = ratelimit.New(s.ReplyLimit, s.ReplyWindow)
	}
	dispatcher := core.NewDispatcher(pol, registry, router, limiter, a.newSender(token), logger.With(logging.ComponentKey, "dispatch"))

	reloader := core.NewReloader(store, router, logger.With(logging.ComponentKey, "reload"))
	if s.WatchInterval > 0 {
		w := configwatch.New(s.WatchInterval, logger.With(logging.ComponentKey, "watch"))
		w.Watch(s.ReplyFile, reloader.OnFileChange)
		go w.Run(ctx)
	}
	go reloadOnHangup(ctx, reloader)

	logger.Info("starting bot", "replies", s.ReplyFile, "token_source", src.String(), "keywords", router.Current().Len())
	cli.Banner(a.stdout, s.ReplyFile, router.Current().Len())

	receiver := a.newReceiver(token, dispatcher.Handle, logger.With(logging.ComponentKey, "telegram"))
	if err := receiver.Start(ctx); err != nil {
		if errors.Is(err, telegram_receiver.ErrUnauthorized) {
			cli.Fatal(a.stderr, err, "Check the bot token with @BotFather.")
			return errReported
		}
		return err
	}

	logger.Info("shutting down")
	return nil
}

func reloadOnHangup(ctx context.Context, r *core.Reloader) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			_ = r.Reload()
		}
	}
}

func tokenHint(src credentials.Source) string {
	switch src.(type) {
	case credentials.FileSource:
		return "Put your bot token from @BotFather in that file, or pass --token-source."
	case credentials.KeychainSource:
		return "Store it first with: autoreply token set <token>"
	default:
		return "Create the parameter as a SecureString holding the bot token."
	}
}
