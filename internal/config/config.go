// Package config loads layered configuration for the bto CLI: defaults,
// an optional YAML file, BTO_-prefixed environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/db"
)

// EnvPrefix is prepended to every environment override, e.g. BTO_DB_PATH.
const EnvPrefix = "BTO"

// Config represents the bto configuration.
type Config struct {
	DBPath   string `mapstructure:"db_path"`
	LogLevel string `mapstructure:"log_level"`
	Strict   bool   `mapstructure:"strict"`
	Actor    Actor  `mapstructure:"actor"`
}

// Actor is the default identity commands act as.
type Actor struct {
	ID   string `mapstructure:"id"`
	Role string `mapstructure:"role"`
}

// FlagBindings maps config keys to the flag names that override them.
var FlagBindings = map[string]string{
	"db_path":    "db",
	"log_level":  "log-level",
	"actor.id":   "as",
	"actor.role": "role",
}

// Load reads configuration from path, or from $HOME/.bto/config.yaml when
// path is empty. A missing default file is not an error. Flags set on fs
// take precedence over every other source.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dbPath, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}
	v.SetDefault("db_path", dbPath)
	v.SetDefault("log_level", "info")
	v.SetDefault("strict", false)
	v.SetDefault("actor.id", "")
	v.SetDefault("actor.role", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".bto"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if fs != nil {
		for key, name := range FlagBindings {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Actor.Role != "" && !ctxutil.Role(c.Actor.Role).Valid() {
		return fmt.Errorf("unknown actor role %q (want applicant, officer or manager)", c.Actor.Role)
	}
	if c.Actor.Role != "" && c.Actor.ID == "" {
		return errors.New("actor.role is set but actor.id is empty")
	}
	return nil
}

// ActorContext returns the configured actor, or false if none is set.
func (c *Config) ActorContext() (ctxutil.Actor, bool) {
	if c.Actor.ID == "" {
		return ctxutil.Actor{}, false
	}
	return ctxutil.Actor{ID: c.Actor.ID, Role: ctxutil.Role(c.Actor.Role)}, true
}
