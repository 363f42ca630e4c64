// Package config loads flashdeck settings. Values are layered, lowest
// precedence first: flag defaults, a YAML file, FLASHDECK_* environment
// variables (a .env file in the working directory is read first), and
// flags given on the command line.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "FLASHDECK_"

// Config holds all flashdeck settings.
type Config struct {
	DecksDir            string   `koanf:"decks_dir" validate:"required"`
	DBPath              string   `koanf:"db_path" validate:"required"`
	Addr                string   `koanf:"addr" validate:"required,hostname_port"`
	LogLevel            string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	RandomCount         int      `koanf:"random_count" validate:"gte=0"`
	PrioritizeDifficult bool     `koanf:"prioritize_difficult"`
	ReposDir            string   `koanf:"repos_dir" validate:"required"`
	Sources             []string `koanf:"sources" validate:"dive,required"`
}

// RegisterFlags declares every setting on flags with its default value.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML config file")
	flags.String("decks-dir", "decks", "Directory holding the deck JSON files")
	flags.String("db-path", "flashdeck.db", "Path to the SQLite stats database")
	flags.String("addr", "127.0.0.1:4000", "Listen address for the HTTP API")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Int("random-count", 30, "Default number of cards in a random run")
	flags.Bool("prioritize-difficult", false, "Draw difficult cards first in random runs")
	flags.String("repos-dir", "repos", "Directory git deck sources are cloned into")
	flags.StringSlice("source", nil, "Deck source: a local directory or git URL (repeatable)")
}

// flagKey maps a flag name to its config key.
func flagKey(name string) string {
	if name == "source" {
		return "sources"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Load builds the Config from the layered sources and validates it.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config: cannot read .env", "error", err)
	}

	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "sources" {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return flagKey(f.Name), posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, fmt.Errorf("error reading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel returns the slog level named by LogLevel.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
