// Package config loads the CMR client configuration from a YAML file and
// CMR_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sternrassler/cmr-client/pkg/auth"
	"github.com/Sternrassler/cmr-client/pkg/cache"
	"github.com/Sternrassler/cmr-client/pkg/client"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CMR_ENV or CMR_AUTH_TOKEN.
const EnvPrefix = "CMR"

// Load loads the configuration. An explicit configPath must exist; without
// one the standard locations are searched and a missing file is not an error,
// so that a deployment can be configured from the environment alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cmr"))
		}

		v.AddConfigPath("/etc/cmr/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key needs a default so
// that environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// CMR defaults
	v.SetDefault("env", "prod")
	v.SetDefault("base_url", "")
	v.SetDefault("client_id", client.DefaultClientID)
	v.SetDefault("accept", client.DefaultAccept)
	v.SetDefault("max_time", client.DefaultMaxTime)
	v.SetDefault("timeout", client.DefaultTimeout)

	// Auth defaults
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_file", auth.DefaultTokenFile)
	v.SetDefault("auth.max_file_age", auth.DefaultMaxFileAge)
	v.SetDefault("auth.manager_app", auth.DefaultManagerApp)
	v.SetDefault("auth.manager_service", auth.DefaultManagerService)
	v.SetDefault("auth.account", "")
	v.SetDefault("auth.required", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", cache.DefaultTTL)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	validEnvs := map[string]bool{
		"":     true,
		"prod": true,
		"sit":  true,
		"uat":  true,
	}
	if !validEnvs[cfg.Env] {
		return fmt.Errorf("invalid env: %s (must be prod, sit or uat)", cfg.Env)
	}

	if cfg.MaxTime < 0 {
		return fmt.Errorf("max_time must be >= 0")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}

	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if !logging.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	return nil
}

// AuthOptions converts the auth section for pkg/auth.
func (c *Config) AuthOptions() auth.Options {
	return auth.Options{
		TokenValue:     c.Auth.Token,
		TokenFile:      c.Auth.TokenFile,
		MaxFileAge:     c.Auth.MaxFileAge,
		ManagerApp:     c.Auth.ManagerApp,
		ManagerService: c.Auth.ManagerService,
		Account:        c.Auth.Account,
	}
}

// LoggingConfig converts the logging section for pkg/logging.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Pretty = c.Logging.Pretty
	cfg.Fields = map[string]string{"env": c.Env}
	return cfg
}

// RedisClient creates the cache backend, nil when redis is disabled. The
// caller owns the returned client.
func (c *Config) RedisClient() *redis.Client {
	if !c.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// ClientConfig builds the client configuration, resolving the token through
// the configured strategies. A missing token is only an error when
// auth.required is set. redisClient may be nil.
func (c *Config) ClientConfig(ctx context.Context, redisClient *redis.Client) (client.Config, error) {
	token, err := auth.Resolve(ctx, c.AuthOptions())
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) || c.Auth.Required {
			return client.Config{}, fmt.Errorf("resolve token: %w", err)
		}
	}

	cfg := client.Config{
		Env:           c.Env,
		BaseURL:       c.BaseURL,
		Authorization: auth.Bearer(token),
		ClientID:      c.ClientID,
		Accept:        c.Accept,
		MaxTime:       c.MaxTime,
		Timeout:       c.Timeout,
		Redis:         redisClient,
		CacheTTL:      c.Redis.CacheTTL,
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return client.Config{}, err
	}
	return cfg, nil
}
