package provision

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// maintenanceDatabase is always present on a PostgreSQL server.
const maintenanceDatabase = "postgres"

// postgresServerDSN returns conn in key=value form pointing at the
// maintenance database instead of dbName.
func postgresServerDSN(conn, dbName string) (string, error) {
	kv := strings.TrimSpace(conn)
	if strings.HasPrefix(kv, "postgres://") || strings.HasPrefix(kv, "postgresql://") {
		parsed, err := pq.ParseURL(kv)
		if err != nil {
			return "", fmt.Errorf("failed to parse connection URL: %w", err)
		}
		kv = parsed
	}

	pairs, err := splitKeyValues(kv)
	if err != nil {
		return "", err
	}

	out := make([]string, 0, len(pairs)+1)
	for _, p := range pairs {
		if p.key == "dbname" {
			if p.value != dbName {
				return "", mismatch(p.value, dbName)
			}
			continue
		}
		out = append(out, p.raw)
	}
	out = append(out, "dbname="+maintenanceDatabase)
	return strings.Join(out, " "), nil
}

type keyValue struct {
	key   string
	value string
	raw   string
}

// splitKeyValues splits a libpq key=value string. Values may be single-quoted
// with backslash escapes.
func splitKeyValues(s string) ([]keyValue, error) {
	var (
		pairs []keyValue
		i     int
	)
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			return pairs, nil
		}

		start := i
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("missing \"=\" after %q in connection string", s[i:])
		}
		key := strings.TrimSpace(s[i : i+eq])
		i += eq + 1
		for i < len(s) && s[i] == ' ' {
			i++
		}

		var value strings.Builder
		if i < len(s) && s[i] == '\'' {
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					value.WriteByte(s[i+1])
					i += 2
					continue
				}
				i++
				if c == '\'' {
					closed = true
					break
				}
				value.WriteByte(c)
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted value for %q in connection string", key)
			}
		} else {
			for i < len(s) && s[i] != ' ' {
				value.WriteByte(s[i])
				i++
			}
		}

		pairs = append(pairs, keyValue{key: key, value: value.String(), raw: s[start:i]})
	}
}
