package provision

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/satishbabariya/dbprobe/database"
)

// sqlitePath extracts the file path from a SQLite connection string.
func sqlitePath(conn string) string {
	path := database.SQLite.DataSourceName(conn)
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// ensureSQLiteFile creates an empty database file. An empty file is a valid
// SQLite database, so the connection check afterwards only proves it opens.
func ensureSQLiteFile(ctx context.Context, logger *slog.Logger, cfg Config, opts []database.Option) (bool, error) {
	path := sqlitePath(cfg.ConnectionString)
	if path == "" || path == ":memory:" {
		logger.Info("in-memory database needs no provisioning")
		return false, nil
	}

	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != cfg.DatabaseName && base != cfg.DatabaseName {
		return false, mismatch(stem, cfg.DatabaseName)
	}

	if _, err := AppFs.Stat(path); err == nil {
		logger.Info("database exists so NOT creating", "path", path)
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	logger.Info("database does not exist so creating", "path", path)
	if err := AppFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := AppFs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}

	h, err := database.New(cfg.LogicalName, cfg.ConnectionString, append([]database.Option{database.WithProvider(database.SQLite)}, opts...)...)
	if err != nil {
		return false, err
	}
	if err := h.CanConnect(ctx); err != nil {
		return false, err
	}
	return true, nil
}
