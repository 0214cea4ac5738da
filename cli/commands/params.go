package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/database"
)

// queryInput is the SQL text and parameters shared by the query commands.
type queryInput struct {
	params []string
	file   string
}

func (q *queryInput) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&q.params, "param", "p", nil, "Named parameter as name=value, referenced as @name (repeatable)")
	cmd.Flags().StringVarP(&q.file, "file", "f", "", "Read the SQL from a file")
}

// sql returns the query text from the single argument or --file.
func (q *queryInput) sql(args []string) (string, error) {
	switch {
	case q.file != "" && len(args) > 0:
		return "", errors.New("give the query either as an argument or with --file, not both")
	case q.file != "":
		content, err := os.ReadFile(q.file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(content), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("a query is required")
	}
}

func (q *queryInput) bind() ([]database.Param, error) {
	return parseParams(q.params)
}

// parseParams turns name=value pairs into parameters. Only the first "="
// separates name from value; values stay strings.
func parseParams(raw []string) ([]database.Param, error) {
	params := make([]database.Param, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", kv)
		}
		params = append(params, database.P(name, value))
	}
	return params, nil
}
