package connconfig

import (
	"errors"
	"fmt"

	"github.com/ggoodman/redis-session-go/connstring"
	"github.com/joeshaw/envdecode"
)

// Config selects where named connection strings come from. Defaults can be
// loaded via envdecode.
type Config struct {
	// File is an optional YAML file of connection strings. ENV: REDIS_SESSION_CONFIG_FILE
	File string `env:"REDIS_SESSION_CONFIG_FILE"`
	// EnvPrefix for per-name environment variables. ENV: REDIS_CONNECTION_STRING_PREFIX
	EnvPrefix string `env:"REDIS_CONNECTION_STRING_PREFIX,default=REDIS_CONNECTION_STRING_"`
	// Name of the connection string a session binds to. ENV: REDIS_SESSION_NAME
	Name string `env:"REDIS_SESSION_NAME,default=Redis"`
}

// DefaultName is the connection string name used when none is configured.
const DefaultName = "Redis"

// FromEnv populates Config from the environment, applying tag defaults. A
// variable set to the empty string counts as unset.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.EnvPrefix == "" {
		cfg.EnvPrefix = DefaultEnvPrefix
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	return cfg, nil
}

// Source builds the configured source: the file (when set) falling back to
// the environment.
func (c Config) Source(opts ...FileOption) connstring.Source {
	env := Env(c.EnvPrefix)
	if c.File == "" {
		return env
	}
	return Chain(File(c.File, opts...), env)
}
