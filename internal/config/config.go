// Package config loads jsonfilter settings from a YAML file and
// JSONFILTER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// EnvPrefix prefixes environment overrides, e.g. JSONFILTER_CATALOG.
const EnvPrefix = "JSONFILTER"

// Config holds the settings shared by every CLI command.
type Config struct {
	// Catalog is the path of the YAML or CUE metadata catalog.
	Catalog string `mapstructure:"catalog"`

	// ReferenceDB is the path of the SQLite reference list store. When
	// empty, reference lists come from the catalog.
	ReferenceDB string `mapstructure:"reference_db"`

	// EntityAlias prefixes paths in query text.
	EntityAlias string `mapstructure:"entity_alias"`

	// Aliases map short names to property paths.
	Aliases []Alias `mapstructure:"aliases"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Alias maps a var name to a dot-path.
type Alias struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		EntityAlias: compiler.DefaultEntityAlias,
		LogLevel:    "warn",
	}
}

// Load reads path (optional) and applies environment overrides on top of
// the defaults.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("catalog", def.Catalog)
	v.SetDefault("reference_db", def.ReferenceDB)
	v.SetDefault("entity_alias", def.EntityAlias)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("aliases", []any{})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks alias names and the log level.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Aliases))
	for i, a := range c.Aliases {
		if a.Name == "" || a.Path == "" {
			return fmt.Errorf("aliases[%d]: name and path are required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("aliases[%d]: duplicate alias %q", i, a.Name)
		}
		seen[a.Name] = true
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// AliasMap returns the aliases as a resolver. It is nil when none are set.
func (c Config) AliasMap() resolve.AliasMap {
	if len(c.Aliases) == 0 {
		return nil
	}
	m := make(resolve.AliasMap, len(c.Aliases))
	for _, a := range c.Aliases {
		m[a.Name] = a.Path
	}
	return m
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
