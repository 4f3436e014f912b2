// Package config loads recordkit settings from recordkit.yaml and the
// environment.
package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

// EnvPrefix is the prefix of environment overrides, e.g. RECORDKIT_LOG_LEVEL
const EnvPrefix = "RECORDKIT"

// Config represents the recordkit configuration
type Config struct {
	Schema SchemaConfig `mapstructure:"schema"`
	Log    LogConfig    `mapstructure:"log"`
}

// SchemaConfig controls how key schemas are resolved
type SchemaConfig struct {
	Tag         string `mapstructure:"tag"`
	ColumnTag   string `mapstructure:"column_tag"`
	FallbackKey string `mapstructure:"fallback_key"`
}

// LogConfig controls the logger built by the CLI
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	opts := schema.DefaultOptions()
	return &Config{
		Schema: SchemaConfig{
			Tag:         opts.Tag,
			ColumnTag:   opts.ColumnTag,
			FallbackKey: opts.FallbackKey,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads the configuration from path, or from recordkit.yml or
// recordkit.yaml in the working directory when path is empty. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("schema.tag", def.Schema.Tag)
	v.SetDefault("schema.column_tag", def.Schema.ColumnTag)
	v.SetDefault("schema.fallback_key", def.Schema.FallbackKey)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("recordkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for key, value := range map[string]string{
		"schema.tag":        c.Schema.Tag,
		"schema.column_tag": c.Schema.ColumnTag,
	} {
		if !isTagName(value) {
			return fmt.Errorf("%s must be a struct tag name, got: %q", key, value)
		}
	}

	if c.Schema.FallbackKey == "" {
		return fmt.Errorf("schema.fallback_key must not be empty")
	}

	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses the configured log level
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// SchemaOptions returns the resolver options described by the configuration
func (c *Config) SchemaOptions() schema.Options {
	return schema.Options{
		Tag:         c.Schema.Tag,
		ColumnTag:   c.Schema.ColumnTag,
		FallbackKey: c.Schema.FallbackKey,
	}
}

func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == ':' || r == '"' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
