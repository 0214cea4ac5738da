// Package provision makes sure a test database exists before a run,
// creating it when the server does not have it yet.
package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/satishbabariya/dbprobe/database"
	"github.com/satishbabariya/dbprobe/internal/debug"
	"github.com/satishbabariya/dbprobe/settings"
)

// AppFs is the filesystem holding SQLite database files.
var AppFs = afero.NewOsFs()

// Config names the database to provision and how to reach its server.
type Config struct {
	// LogicalName is the settings category the values came from.
	LogicalName string
	// DatabaseName is the physical database name.
	DatabaseName string
	// ConnectionString points at the database itself; the database part is
	// removed to reach the server when the database may not exist yet.
	ConnectionString string
	// Provider is detected from ConnectionString when empty.
	Provider database.Provider
}

// ConfigFromSettings reads DatabaseName, DatabaseConnectionString and the
// optional Provider from the logicalName category of store.
func ConfigFromSettings(store settings.Store, logicalName string) (Config, error) {
	cfg := Config{LogicalName: logicalName}

	name, ok := store.LookupString(logicalName, settings.KeyDatabaseName)
	if !ok || name == "" {
		return cfg, database.MissingSetting(logicalName, logicalName, settings.KeyDatabaseName)
	}
	cfg.DatabaseName = name

	conn, ok := store.LookupString(logicalName, settings.KeyDatabaseConnectionString)
	if !ok || conn == "" {
		return cfg, database.MissingSetting(logicalName, logicalName, settings.KeyDatabaseConnectionString)
	}
	cfg.ConnectionString = conn

	if raw, ok := store.LookupString(logicalName, settings.KeyProvider); ok && raw != "" {
		p, err := database.ParseProvider(raw)
		if err != nil {
			return cfg, fmt.Errorf("database [%s]: %w", logicalName, err)
		}
		cfg.Provider = p
	}

	return cfg, nil
}

// EnsureExists creates the database described by cfg unless it already
// exists, reporting whether it was created. opts configure the handle used
// to talk to the server.
func EnsureExists(ctx context.Context, cfg Config, opts ...database.Option) (created bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error ensuring %s database exists: %w", cfg.DatabaseName, err)
		}
	}()

	if cfg.DatabaseName == "" {
		return false, database.MissingSetting(cfg.LogicalName, cfg.LogicalName, settings.KeyDatabaseName)
	}

	provider := cfg.Provider
	if provider == "" {
		p, ok := database.DetectProvider(cfg.ConnectionString)
		if !ok {
			return false, database.MissingSetting(cfg.LogicalName, cfg.LogicalName, settings.KeyProvider)
		}
		provider = p
	}

	logger := debug.Logger().With("database", cfg.DatabaseName, "provider", string(provider))

	switch provider {
	case database.PostgreSQL, database.PgX:
		server, err := postgresServerDSN(cfg.ConnectionString, cfg.DatabaseName)
		if err != nil {
			return false, err
		}
		return ensureOnServer(ctx, logger, cfg, provider, server, opts)
	case database.MySQL:
		server, err := mysqlServerDSN(provider.DataSourceName(cfg.ConnectionString), cfg.DatabaseName)
		if err != nil {
			return false, err
		}
		return ensureOnServer(ctx, logger, cfg, provider, server, opts)
	case database.SQLite:
		return ensureSQLiteFile(ctx, logger, cfg, opts)
	default:
		return false, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func ensureOnServer(ctx context.Context, logger *slog.Logger, cfg Config, provider database.Provider, server string, opts []database.Option) (bool, error) {
	logger.Info("connecting to server without database (in case it does not exist)")

	h, err := database.New(cfg.LogicalName, server, append([]database.Option{database.WithProvider(provider)}, opts...)...)
	if err != nil {
		return false, err
	}

	exists, err := h.DatabaseExists(ctx, cfg.DatabaseName)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Info("database exists so NOT creating")
		return false, nil
	}

	logger.Info("database does not exist so creating")
	if _, err := h.NonQuery(ctx, "CREATE DATABASE "+provider.QuoteName(cfg.DatabaseName)); err != nil {
		return false, err
	}
	return true, nil
}

func mismatch(found, want string) error {
	return fmt.Errorf("connection string database name (%s) does not match given database name (%s)", found, want)
}
