package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdelaire/autoreply/core/replies"
	"github.com/jdelaire/autoreply/internal/cli"
	"github.com/jdelaire/autoreply/internal/config"
	"github.com/jdelaire/autoreply/internal/keychain"
	"github.com/jdelaire/autoreply/internal/logging"
)

// errReported marks errors whose diagnostic was already printed.
var errReported = errors.New("reported")

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		cli.Fatal(os.Stderr, err, "")
		os.Exit(1)
	}
	settings, err := config.FromEnv(config.Default(), os.LookupEnv)
	if err != nil {
		cli.Fatal(os.Stderr, err, "Check the AUTOREPLY_* environment variables.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&settings, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			cli.Fatal(os.Stderr, err, "")
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(s *config.Settings, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "autoreply",
		Short:         "Telegram bot that answers messages containing configured keywords",
		Version:       cli.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.Validate()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.ReplyFile, "replies", s.ReplyFile, "keyword to reply JSON file ($"+config.EnvReplyFile+")")
	pf.StringVar(&s.TokenFile, "token-file", s.TokenFile, "file holding the bot token ($"+config.EnvTokenFile+")")
	pf.StringVar(&s.TokenSource, "token-source", s.TokenSource, "where to read the token: file, keychain or ssm:<name> ($"+config.EnvTokenSource+")")
	pf.StringVar(&s.LogLevel, "log-level", s.LogLevel, "debug, info, warn or error ($"+config.EnvLogLevel+")")

	run := newRunCmd(s, stdout, stderr)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, newCheckCmd(s, stdout), newMatchCmd(s, stdout, stderr), newTokenCmd(stdout))
	return root
}

func newRunCmd(s *config.Settings, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start polling Telegram and replying (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(*s, stdout, stderr)
			return a.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Int64SliceVar(&s.AllowedChats, "allowed-chat", s.AllowedChats, "only act on these chat IDs; empty means all ($"+config.EnvAllowedChats+")")
	f.DurationVar(&s.MaxAge, "max-age", s.MaxAge, "ignore messages older than this; 0 accepts any age ($"+config.EnvMaxAge+")")
	f.DurationVar(&s.WatchInterval, "watch-interval", s.WatchInterval, "how often to check the reply file for changes; 0 disables ($"+config.EnvWatchInterval+")")
	f.IntVar(&s.ReplyLimit, "reply-limit", s.ReplyLimit, "max automatic replies per chat per window; 0 for no limit ($"+config.EnvReplyLimit+")")
	f.DurationVar(&s.ReplyWindow, "reply-window", s.ReplyWindow, "window for --reply-limit ($"+config.EnvReplyWindow+")")
	return cmd
}

func newCheckCmd(s *config.Settings, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the reply file and list keywords in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := replies.NewStore(s.ReplyFile, logging.New(io.Discard, "autoreply", nil))
			m, outcome, err := store.Read()
			cli.KeywordTable(stdout, s.ReplyFile, outcome, m)
			return err
		},
	}
}

func newMatchCmd(s *config.Settings, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "match <text>",
		Short: "Show which reply a message would get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, _ := s.Level()
			store := replies.NewStore(s.ReplyFile, logging.New(stderr, "autoreply", lvl))
			text := strings.Join(args, " ")
			reply, keyword, ok := replies.Match(store.Load(), text)
			cli.MatchResult(stdout, text, keyword, reply, ok)
			return nil
		},
	}
}

func newTokenCmd(stdout io.Writer) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token in the system keychain",
	}
	token.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the bot token in the system keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.TrimSpace(args[0])
			if value == "" {
				return errors.New("token must not be empty")
			}
			if err := keychain.Set(keychain.TokenAccount, value); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(stdout, "  "+cli.StatusBadge(true)+" token stored; start with --token-source keychain")
			return nil
		},
	})
	token.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the bot token from the system keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keychain.Delete(keychain.TokenAccount); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			fmt.Fprintln(stdout, "  "+cli.StatusBadge(true)+" token removed")
			return nil
		},
	})
	return token
}
