package provision

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// mysqlServerDSN returns dsn without its database.
func mysqlServerDSN(dsn, dbName string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.DBName != "" && cfg.DBName != dbName {
		return "", mismatch(cfg.DBName, dbName)
	}
	cfg.DBName = ""

	return cfg.FormatDSN(), nil
}
