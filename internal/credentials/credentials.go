// Package credentials resolves the Telegram bot token at startup.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jdelaire/autoreply/internal/keychain"
	"github.com/jdelaire/autoreply/internal/paramstore"
)

var (
	// ErrMissing means the configured source has no token at all.
	ErrMissing = errors.New("bot token not found")
	// ErrEmpty means the source exists but holds only whitespace.
	ErrEmpty = errors.New("bot token is empty")
)

// Source yields the bot token.
type Source interface {
	Token(ctx context.Context) (string, error)
	String() string
}

// Resolve fetches the token from src and strips surrounding whitespace.
// Missing and empty tokens are reported as ErrMissing and ErrEmpty.
func Resolve(ctx context.Context, src Source) (string, error) {
	token, err := src.Token(ctx)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, src)
	}
	return token, nil
}

// FileSource reads the token from a plain text file.
type FileSource struct {
	Path string
}

func (f FileSource) String() string { return "file " + f.Path }

func (f FileSource) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: token file %q does not exist", ErrMissing, f.Path)
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return string(data), nil
}

// KeychainSource reads the token from the system keychain.
type KeychainSource struct {
	Account string
}

func (k KeychainSource) String() string { return "keychain account " + k.Account }

func (k KeychainSource) Token(_ context.Context) (string, error) {
	v, err := keychain.Get(k.Account)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return "", fmt.Errorf("%w: no keychain entry for %q", ErrMissing, k.Account)
		}
		return "", fmt.Errorf("read keychain: %w", err)
	}
	return v, nil
}

// ParameterGetter is satisfied by *paramstore.Client.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParameterSource reads the token from AWS SSM Parameter Store. If Getter
// is nil a client is built from the default AWS configuration.
type ParameterSource struct {
	Name   string
	Getter ParameterGetter
}

func (p ParameterSource) String() string { return "ssm parameter " + p.Name }

func (p ParameterSource) Token(ctx context.Context) (string, error) {
	getter := p.Getter
	if getter == nil {
		client, err := paramstore.NewDefault(ctx)
		if err != nil {
			return "", err
		}
		getter = client
	}

	v, err := getter.GetParameter(ctx, p.Name)
	if err != nil {
		if errors.Is(err, paramstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrMissing, err)
		}
		return "", err
	}
	return v, nil
}

// Parse turns a --token-source value into a Source. Accepted values are "" or
// "file" (read tokenFile), "keychain", and "ssm:<parameter-name>".
func Parse(value, tokenFile string) (Source, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "" || value == "file":
		return FileSource{Path: tokenFile}, nil
	case value == "keychain":
		return KeychainSource{Account: keychain.TokenAccount}, nil
	case strings.HasPrefix(value, "ssm:"):
		name := strings.TrimSpace(strings.TrimPrefix(value, "ssm:"))
		if name == "" {
			return nil, fmt.Errorf("token source %q: parameter name is required", value)
		}
		return ParameterSource{Name: name}, nil
	default:
		return nil, fmt.Errorf("unknown token source %q (want file, keychain or ssm:<name>)", value)
	}
}
