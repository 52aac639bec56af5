// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE / DROP TABLE statements from that model.
//
// Backend packages (internal/storage/<kind>/ddl) supply a Dialect: how to quote
// identifiers, which CREATE form to emit, and how to map schema kinds to
// column types. The rendering rules live here once.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the per-backend rendering differences.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string

	// QuoteIdent quotes a single identifier segment. When nil, identifiers
	// are emitted verbatim.
	QuoteIdent func(string) string

	// QuoteTable quotes table-name segments. Defaults to QuoteIdent.
	QuoteTable func(string) string

	// CreateVerb is the statement head, e.g. "CREATE TABLE" or
	// "CREATE OR REPLACE TABLE". Defaults to "CREATE TABLE".
	CreateVerb string

	// DropVerb is the drop statement head. Defaults to "DROP TABLE IF EXISTS".
	DropVerb string
}

func (d Dialect) name() string {
	if d.Name == "" {
		return "ddl"
	}
	return d.Name
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

func (d Dialect) quoteTable(id string) string {
	if d.QuoteTable != nil {
		return d.QuoteTable(id)
	}
	return d.quote(id)
}

// QuoteFQN quotes every non-empty segment of a dotted name.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quoteTable(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//     where NOT NULL is added when Nullable == false.
//
//   - Columns with PrimaryKey == true are collected and rendered as a separate
//     PRIMARY KEY (<col1>, <col2>, ...) clause at the end of the column list.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.name())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.name())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.name(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.name(), name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	verb := d.CreateVerb
	if verb == "" {
		verb = "CREATE TABLE"
	}

	return fmt.Sprintf(
		"%s %s (\n  %s\n);",
		verb,
		d.QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders the statement that removes fqn if it exists.
func BuildDropTableSQL(fqn string, d Dialect) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.name())
	}
	verb := d.DropVerb
	if verb == "" {
		verb = "DROP TABLE IF EXISTS"
	}
	return fmt.Sprintf("%s %s;", verb, d.QuoteFQN(fqn)), nil
}

// DoubleQuote quotes an identifier ANSI-style, doubling embedded quotes.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
