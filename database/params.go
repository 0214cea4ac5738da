package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Param is a named query parameter. Query text refers to it as @Name.
type Param struct {
	Name  string
	Value any
}

// P builds a Param. A leading @ on name is ignored.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

func (p Param) key() string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Name), "@"))
}

// queryScanner splits SQL just finely enough to find @name references
// outside literals, quoted identifiers and comments.
type queryScanner struct {
	def   *lexer.StatefulDefinition
	param lexer.TokenType
}

func newQueryScanner(str, ident string) queryScanner {
	def := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: str},
		{Name: "QuotedIdent", Pattern: ident},
		{Name: "LineComment", Pattern: `--[^\n]*`},
		{Name: "BlockComment", Pattern: `/\*[\s\S]*?\*/`},
		{Name: "SystemVar", Pattern: `@@[A-Za-z_][A-Za-z0-9_.$]*`},
		{Name: "Param", Pattern: `@[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Text", Pattern: "[^'\"`@/-]+"},
		{Name: "Char", Pattern: `[\s\S]`},
	})
	return queryScanner{def: def, param: def.Symbols()["Param"]}
}

var (
	standardScanner = newQueryScanner(
		`'(?:[^']|'')*'`,
		`"(?:[^"]|"")*"|`+"`(?:[^`]|``)*`",
	)
	// MySQL treats backslash as an escape inside both quote styles.
	mysqlScanner = newQueryScanner(
		`'(?:[^'\\]|\\[\s\S]|'')*'`,
		`"(?:[^"\\]|\\[\s\S]|"")*"|`+"`(?:[^`]|``)*`",
	)
)

func (p Provider) scanner() queryScanner {
	if p == MySQL {
		return mysqlScanner
	}
	return standardScanner
}

func validateParams(params []Param) error {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		k := p.key()
		if k == "" {
			return errors.New("parameter with empty name")
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("parameter @%s supplied more than once", k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// bindParams returns the query text and driver arguments for provider.
func bindParams(provider Provider, query string, params []Param) (string, []any, error) {
	if err := validateParams(params); err != nil {
		return "", nil, &Error{Kind: KindInvalidParameters, Query: query, Err: err}
	}
	if len(params) == 0 {
		return query, nil, nil
	}

	byKey := make(map[string]Param, len(params))
	for _, p := range params {
		byKey[p.key()] = p
	}

	sc := provider.scanner()
	lex, err := sc.def.LexString("", query)
	if err != nil {
		return "", nil, &Error{Kind: KindInvalidParameters, Query: query, Err: err}
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return "", nil, &Error{Kind: KindInvalidParameters, Query: query, Err: err}
	}

	style := provider.placeholders()
	var (
		b        strings.Builder
		args     []any
		position = make(map[string]int)
	)
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		if tok.Type != sc.param {
			b.WriteString(tok.Value)
			continue
		}

		k := strings.ToLower(tok.Value[1:])
		p, ok := byKey[k]
		if !ok {
			b.WriteString(tok.Value)
			continue
		}

		switch style {
		case placeholderNamed:
			// SQLite matches names case-sensitively, so refs and args use the key
			b.WriteString("@" + k)
		case placeholderDollar:
			n, seen := position[k]
			if !seen {
				args = append(args, p.Value)
				n = len(args)
				position[k] = n
			}
			b.WriteString("$" + strconv.Itoa(n))
		case placeholderQuestion:
			args = append(args, p.Value)
			b.WriteString("?")
		}
	}

	if style == placeholderNamed {
		for _, p := range params {
			args = append(args, sql.Named(p.key(), p.Value))
		}
	}

	return b.String(), args, nil
}
