// Package dialect provides the backend-specific SQL syntax rules used by the
// query builder: identifier quoting, parameter placeholders, LIMIT/OFFSET
// surface syntax, and feature support flags.
//
// This package contains the public contract plus the built-in dialect
// implementations, registered from their init functions and looked up by
// Backend through For.
package dialect

import (
	"fmt"
	"strings"
)

// Backend identifies a supported database engine.
type Backend int

const (
	// Postgres targets PostgreSQL ($N placeholders, RETURNING support).
	Postgres Backend = iota
	// MySQL targets MySQL (? placeholders, no RETURNING, no FULL JOIN).
	MySQL
	// MariaDB targets MariaDB (same surface syntax as MySQL).
	MariaDB
	// SQLite targets SQLite (? placeholders, RETURNING support).
	SQLite
)

// String returns the string representation of Backend.
func (b Backend) String() string {
	switch b {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case MariaDB:
		return "mariadb"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseBackend maps a configuration name to a Backend. It accepts the common
// aliases used in connection configuration ("postgresql", "pg", "sqlite3").
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "mariadb", "maria":
		return MariaDB, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown database backend %q", name)
	}
}

// Dialect defines the surface syntax of one database backend. Implementations
// are stateless strategy objects; the query builder selects one at
// construction time and consults it while assembling SQL text.
type Dialect interface {
	// Name returns the dialect identifier (e.g. "postgres").
	Name() string

	// Backend returns the Backend this dialect implements.
	Backend() Backend

	// QuoteIdent quotes a single identifier, doubling any embedded quote
	// characters. Callers split qualified names and quote each part.
	QuoteIdent(name string) string

	// Placeholder formats the n-th query parameter, counting from 1.
	Placeholder(n int) string

	// CastPlaceholder formats the n-th parameter with a type cast where the
	// backend supports cast syntax; other backends emit a plain placeholder.
	CastPlaceholder(n int, typeName string) string

	// LimitClause renders the LIMIT/OFFSET portion of a query. A negative
	// limit means no limit; an offset of zero or less means no offset. An
	// empty string is returned when neither applies.
	LimitClause(limit, offset int) string

	// SupportsReturning reports whether the backend accepts a RETURNING
	// clause on INSERT/UPDATE/DELETE.
	SupportsReturning() bool

	// SupportsFullJoin reports whether the backend accepts FULL OUTER JOIN.
	SupportsFullJoin() bool
}

// quoteWith wraps name in the given quote character, doubling embedded
// occurrences so the identifier stays intact.
func quoteWith(name, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
