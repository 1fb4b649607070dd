// Package config holds process settings. Values come from flags, which
// default to environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvTokenFile     = "AUTOREPLY_TOKEN_FILE"
	EnvTokenSource   = "AUTOREPLY_TOKEN_SOURCE"
	EnvReplyFile     = "AUTOREPLY_REPLY_FILE"
	EnvAllowedChats  = "AUTOREPLY_ALLOWED_CHATS"
	EnvMaxAge        = "AUTOREPLY_MAX_MESSAGE_AGE"
	EnvWatchInterval = "AUTOREPLY_WATCH_INTERVAL"
	EnvReplyLimit    = "AUTOREPLY_REPLY_LIMIT"
	EnvReplyWindow   = "AUTOREPLY_REPLY_WINDOW"
	EnvLogLevel      = "AUTOREPLY_LOG_LEVEL"
)

// Settings configures the bot process.
type Settings struct {
	TokenFile     string
	TokenSource   string // "file", "keychain" or "ssm:<name>"
	ReplyFile     string
	AllowedChats  []int64
	MaxAge        time.Duration // 0 accepts messages of any age
	WatchInterval time.Duration // 0 disables reloading on file change
	ReplyLimit    int           // replies per chat per ReplyWindow, 0 for no limit
	ReplyWindow   time.Duration
	LogLevel      string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		TokenFile:     "token.txt",
		TokenSource:   "file",
		ReplyFile:     "config.json",
		WatchInterval: 2 * time.Second,
		ReplyWindow:   time.Minute,
		LogLevel:      "info",
	}
}

// LoadDotEnv loads variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// FromEnv overlays environment variables onto base.
func FromEnv(base Settings, lookup func(string) (string, bool)) (Settings, error) {
	s := base
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvTokenFile, &s.TokenFile)
	str(EnvTokenSource, &s.TokenSource)
	str(EnvReplyFile, &s.ReplyFile)
	str(EnvLogLevel, &s.LogLevel)

	if err := dur(EnvMaxAge, &s.MaxAge); err != nil {
		return base, err
	}
	if err := dur(EnvWatchInterval, &s.WatchInterval); err != nil {
		return base, err
	}
	if err := dur(EnvReplyWindow, &s.ReplyWindow); err != nil {
		return base, err
	}

	if v, ok := lookup(EnvReplyLimit); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return base, fmt.Errorf("%s: %w", EnvReplyLimit, err)
		}
		s.ReplyLimit = n
	}

	if v, ok := lookup(EnvAllowedChats); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseChatIDs(v)
		if err != nil {
			return base, fmt.Errorf("%s: %w", EnvAllowedChats, err)
		}
		s.AllowedChats = ids
	}

	return s, nil
}

// ParseChatIDs parses a comma separated list of chat IDs.
func ParseChatIDs(list string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks settings that flags cannot constrain.
func (s Settings) Validate() error {
	if s.ReplyFile == "" {
		return errors.New("reply file path is required")
	}
	if s.TokenFile == "" && (s.TokenSource == "" || s.TokenSource == "file") {
		return errors.New("token file path is required")
	}
	if s.WatchInterval < 0 || s.MaxAge < 0 {
		return errors.New("durations must not be negative")
	}
	if s.ReplyLimit > 0 && s.ReplyWindow <= 0 {
		return errors.New("reply window must be positive when a reply limit is set")
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	return lvl, nil
}
