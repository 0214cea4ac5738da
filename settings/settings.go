// Package settings resolves named configuration values grouped by category.
//
// A category is either a logical database name (holding ConnectionString,
// DatabaseName, DatabaseConnectionString, Provider) or the fixed "Database"
// category holding the polling Timeout and PollInterval in milliseconds.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dbprobe/internal/debug"
)

// AppFs is the filesystem used to look up configuration and .env files.
var AppFs = afero.NewOsFs()

const (
	// DatabaseCategory holds settings shared by all database handles.
	DatabaseCategory = "Database"

	// KeyTimeout is the polling timeout in milliseconds.
	KeyTimeout = "Timeout"
	// KeyPollInterval is the wait between polling attempts in milliseconds.
	KeyPollInterval = "PollInterval"
	// KeyConnectionString is the connection string of a logical database.
	KeyConnectionString = "ConnectionString"
	// KeyProvider optionally names the driver family of a logical database.
	KeyProvider = "Provider"
	// KeyDatabaseName is the physical database name used when provisioning.
	KeyDatabaseName = "DatabaseName"
	// KeyDatabaseConnectionString is the connection string used when provisioning.
	KeyDatabaseConnectionString = "DatabaseConnectionString"

	keyDelimiter = "::"
	envPrefix    = "DBPROBE"
)

// Store looks up settings by category and key. Lookups report absence
// through the boolean rather than an error.
type Store interface {
	HasCategory(category string) bool
	LookupString(category, key string) (string, bool)
	LookupInt(category, key string) (int, bool)
	LookupDuration(category, key string) (time.Duration, bool)
}

// Viper is a Store backed by a viper instance. Keys are case-insensitive.
type Viper struct {
	v      *viper.Viper
	logger *slog.Logger
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile, when set, is read instead of searching for .dbprobe.yaml.
	ConfigFile string
	// SkipDotEnv disables loading .env and .env.local.
	SkipDotEnv bool
}

// Load reads settings from a config file, .env files and DBPROBE_ environment
// variables. A missing config file is not an error.
func Load(opts LoadOptions) (*Viper, error) {
	v := newViper()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}

		v.SetConfigName(".dbprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "dbprobe"))
	}

	if !opts.SkipDotEnv {
		loadDotEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Viper{v: v, logger: debug.Logger()}, nil
}

// FromMap builds a Store from category -> key -> value. Environment
// variables with the DBPROBE_ prefix still apply.
func FromMap(values map[string]map[string]any) *Viper {
	v := newViper()
	for category, entries := range values {
		for key, value := range entries {
			v.Set(join(category, key), value)
		}
	}
	return &Viper{v: v, logger: debug.Logger()}
}

func newViper() *viper.Viper {
	// database names may contain dots, so the default delimiter cannot be used
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_", ".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			debug.Warn("failed to load .env", "error", err)
		}
	}

	// .env.local wins over .env
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			debug.Warn("failed to load .env.local", "error", err)
		}
	}
}

func join(category, key string) string {
	return category + keyDelimiter + key
}

// HasCategory reports whether any setting exists under category.
func (s *Viper) HasCategory(category string) bool {
	return s.v.IsSet(category)
}

// LookupString returns the string value of category/key.
func (s *Viper) LookupString(category, key string) (string, bool) {
	raw, ok := s.lookup(category, key)
	if !ok {
		return "", false
	}
	value, err := cast.ToStringE(raw)
	if err != nil {
		s.invalid(category, key, err)
		return "", false
	}
	return value, true
}

// LookupInt returns the integer value of category/key.
func (s *Viper) LookupInt(category, key string) (int, bool) {
	raw, ok := s.lookup(category, key)
	if !ok {
		return 0, false
	}
	value, err := cast.ToIntE(raw)
	if err != nil {
		s.invalid(category, key, err)
		return 0, false
	}
	return value, true
}

// LookupDuration returns category/key as a duration. Integers are taken as
// milliseconds; strings may also use Go duration syntax ("1500ms", "2s").
func (s *Viper) LookupDuration(category, key string) (time.Duration, bool) {
	raw, ok := s.lookup(category, key)
	if !ok {
		return 0, false
	}
	value, err := toDuration(raw)
	if err != nil {
		s.invalid(category, key, err)
		return 0, false
	}
	return value, true
}

// AllSettings returns every setting as a nested map.
func (s *Viper) AllSettings() map[string]any {
	return s.v.AllSettings()
}

// ConfigFileUsed returns the config file that was read, if any.
func (s *Viper) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}

func (s *Viper) lookup(category, key string) (any, bool) {
	k := join(category, key)
	if !s.v.IsSet(k) {
		return nil, false
	}
	return s.v.Get(k), true
}

func (s *Viper) invalid(category, key string, err error) {
	s.logger.Warn("ignoring invalid setting", "category", category, "key", key, "error", err)
}

func toDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		if ms, err := cast.ToInt64E(strings.TrimSpace(v)); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		return time.ParseDuration(strings.TrimSpace(v))
	default:
		ms, err := cast.ToInt64E(v)
		if err != nil {
			return 0, err
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
}

var _ Store = (*Viper)(nil)
