// Package auth resolves the CMR credential placed in the Authorization header.
//
// A token is looked up through an ordered list of strategies; the first
// strategy yielding a non-empty token wins. Acquiring tokens over the network
// is out of scope: tokens are expected to be issued by Earthdata Login and
// handed to the client through configuration, a token file or a password manager.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Defaults for Options.
const (
	DefaultTokenFile      = "~/.cmr_token"
	DefaultMaxFileAge     = 24 * time.Hour
	DefaultManagerApp     = "/usr/bin/security"
	DefaultManagerService = "cmr-lib"
)

// ErrNoToken is returned by Resolve when no strategy produced a token.
var ErrNoToken = errors.New("no cmr token available")

// Options configures the built-in strategies.
type Options struct {
	// TokenValue is a literal token, used by FromConfig
	TokenValue string

	// TokenFile is the path of the token file, "~/" is expanded
	TokenFile string

	// MaxFileAge makes FromFile ignore token files modified longer ago
	MaxFileAge time.Duration

	// ManagerApp is the password manager executable
	ManagerApp string

	// ManagerService is the service name the token is stored under
	ManagerService string

	// Account is the account name the token is stored under; FromManager is
	// skipped when empty
	Account string
}

// WithDefaults returns a copy of o with unset options defaulted.
func (o Options) WithDefaults() Options {
	if o.TokenFile == "" {
		o.TokenFile = DefaultTokenFile
	}
	if o.MaxFileAge <= 0 {
		o.MaxFileAge = DefaultMaxFileAge
	}
	if o.ManagerApp == "" {
		o.ManagerApp = DefaultManagerApp
	}
	if o.ManagerService == "" {
		o.ManagerService = DefaultManagerService
	}
	return o
}

// Strategy produces a token. An empty token with a nil error means the
// strategy has nothing to offer and the next one should be tried.
type Strategy func(ctx context.Context, opts Options) (string, error)

// Literal returns a strategy that always yields token.
func Literal(token string) Strategy {
	return func(context.Context, Options) (string, error) {
		return strings.TrimSpace(token), nil
	}
}

// FromConfig yields Options.TokenValue.
func FromConfig(_ context.Context, opts Options) (string, error) {
	return strings.TrimSpace(opts.TokenValue), nil
}

// FromFile reads the token file. Missing and stale files yield no token.
func FromFile(_ context.Context, opts Options) (string, error) {
	opts = opts.WithDefaults()

	path, err := expandHome(opts.TokenFile)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat token file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("token file %s is a directory", path)
	}
	if time.Since(info.ModTime()) > opts.MaxFileAge {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// FromManager asks a password manager for the token, using the command line
// of the macOS security tool:
//
//	<app> find-generic-password -a <account> -s <service> -w
func FromManager(ctx context.Context, opts Options) (string, error) {
	opts = opts.WithDefaults()
	if opts.Account == "" {
		return "", nil
	}

	cmd := exec.CommandContext(ctx, opts.ManagerApp,
		"find-generic-password", "-a", opts.Account, "-s", opts.ManagerService, "-w")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("password manager exited with %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("run password manager: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// DefaultStrategies is the lookup order used when Resolve gets no strategies.
func DefaultStrategies() []Strategy {
	return []Strategy{FromConfig, FromFile, FromManager}
}

// Resolve runs the strategies in order and returns the first non-empty token.
// Errors of individual strategies are logged and the next one is tried.
func Resolve(ctx context.Context, opts Options, strategies ...Strategy) (string, error) {
	return resolve(ctx, logging.NewLogger(logging.ComponentAuth), opts, strategies)
}

func resolve(ctx context.Context, logger zerolog.Logger, opts Options, strategies []Strategy) (string, error) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	for i, strategy := range strategies {
		if strategy == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		token, err := strategy(ctx, opts)
		if err != nil {
			logger.Warn().Err(err).Int("strategy", i).Msg("Token strategy failed")
			continue
		}
		if token != "" {
			logger.Debug().Int("strategy", i).Msg("Token resolved")
			return token, nil
		}
	}
	return "", ErrNoToken
}

// Bearer formats token for the Authorization header. Values that already
// carry the Bearer scheme are returned unchanged; an empty token stays empty.
func Bearer(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return token
	}
	return "Bearer " + token
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
