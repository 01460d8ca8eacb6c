package auth

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeToken(t *testing.T, content string, age time.Duration) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	if age > 0 {
		mtime := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	return path
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()

	assert.Equal(t, DefaultTokenFile, opts.TokenFile)
	assert.Equal(t, DefaultMaxFileAge, opts.MaxFileAge)
	assert.Equal(t, DefaultManagerApp, opts.ManagerApp)
	assert.Equal(t, DefaultManagerService, opts.ManagerService)
	assert.Empty(t, opts.Account)
}

func TestLiteralAndFromConfig(t *testing.T) {
	ctx := context.Background()

	token, err := Literal(" abc \n")(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = FromConfig(ctx, Options{TokenValue: "from-config"})
	require.NoError(t, err)
	assert.Equal(t, "from-config", token)

	token, err = FromConfig(ctx, Options{})
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFromFile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		maxAge   time.Duration
		expected string
		wantErr  bool
	}{
		{
			name:     "fresh file",
			path:     func(t *testing.T) string { return writeToken(t, "file-token\n", 0) },
			expected: "file-token",
		},
		{
			name:     "stale file is ignored",
			path:     func(t *testing.T) string { return writeToken(t, "old", 25*time.Hour) },
			expected: "",
		},
		{
			name:     "custom max age",
			path:     func(t *testing.T) string { return writeToken(t, "recent", 2*time.Hour) },
			maxAge:   3 * time.Hour,
			expected: "recent",
		},
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") },
			expected: "",
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := FromFile(ctx, Options{TokenFile: tt.path(t), MaxFileAge: tt.maxAge})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestFromManager(t *testing.T) {
	ctx := context.Background()

	token, err := FromManager(ctx, Options{})
	require.NoError(t, err)
	assert.Empty(t, token, "no account, no lookup")

	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skipf("echo not available: %v", err)
	}

	// echo prints the arguments it would have passed to the password manager
	token, err = FromManager(ctx, Options{ManagerApp: echo, Account: "user", ManagerService: "svc"})
	require.NoError(t, err)
	assert.Equal(t, "find-generic-password -a user -s svc -w", token)

	_, err = FromManager(ctx, Options{ManagerApp: filepath.Join(t.TempDir(), "missing"), Account: "user"})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	failing := func(context.Context, Options) (string, error) { return "", errors.New("boom") }
	empty := func(context.Context, Options) (string, error) { return "", nil }

	token, err := Resolve(ctx, Options{}, empty, failing, Literal("third"), Literal("fourth"))
	require.NoError(t, err)
	assert.Equal(t, "third", token)

	_, err = Resolve(ctx, Options{}, empty, failing)
	assert.ErrorIs(t, err, ErrNoToken)

	token, err = Resolve(ctx, Options{TokenValue: "configured"})
	require.NoError(t, err)
	assert.Equal(t, "configured", token)
}

func TestResolve_LogsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	failing := func(context.Context, Options) (string, error) { return "", errors.New("keychain locked") }

	token, err := resolve(context.Background(), zerolog.New(buf), Options{}, []Strategy{failing, Literal("ok")})
	require.NoError(t, err)
	assert.Equal(t, "ok", token)
	assert.Contains(t, buf.String(), "keychain locked")
	assert.NotContains(t, buf.String(), `"ok"`, "tokens are never logged")
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, Options{}, Literal("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBearer(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"abc", "Bearer abc"},
		{" abc ", "Bearer abc"},
		{"Bearer abc", "Bearer abc"},
		{"bearer abc", "bearer abc"},
		{"", ""},
		{"Bearer", "Bearer Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Bearer(tt.input))
			assert.Equal(t, Bearer(tt.input), Bearer(Bearer(tt.input)))
		})
	}
}
