package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	// Env selects the CMR deployment: "", "prod", "sit" or "uat"
	Env string `mapstructure:"env"`

	// BaseURL overrides the host derived from Env
	BaseURL string `mapstructure:"base_url"`

	ClientID string        `mapstructure:"client_id"`
	Accept   string        `mapstructure:"accept"`
	MaxTime  time.Duration `mapstructure:"max_time"`
	Timeout  time.Duration `mapstructure:"timeout"`

	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AuthConfig controls how the CMR token is found
type AuthConfig struct {
	Token          string        `mapstructure:"token"`
	TokenFile      string        `mapstructure:"token_file"`
	MaxFileAge     time.Duration `mapstructure:"max_file_age"`
	ManagerApp     string        `mapstructure:"manager_app"`
	ManagerService string        `mapstructure:"manager_service"`
	Account        string        `mapstructure:"account"`

	// Required makes a missing token a configuration error
	Required bool `mapstructure:"required"`
}

// RedisConfig enables the response cache
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ServerConfig holds the proxy listener settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}
