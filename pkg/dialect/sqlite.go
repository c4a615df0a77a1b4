package dialect

import "strconv"

func init() {
	Register(sqliteDialect{})
}

// sqliteDialect emits SQLite surface syntax: double-quoted identifiers,
// ? placeholders, and LIMIT n OFFSET m. SQLite supports RETURNING since 3.35.
type sqliteDialect struct{}

func (sqliteDialect) Name() string     { return "sqlite" }
func (sqliteDialect) Backend() Backend { return SQLite }

func (sqliteDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`)
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) CastPlaceholder(int, string) string { return "?" }

func (sqliteDialect) LimitClause(limit, offset int) string {
	switch {
	case limit >= 0 && offset > 0:
		return "LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit >= 0:
		return "LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		// SQLite requires a LIMIT before OFFSET; -1 means unlimited.
		return "LIMIT -1 OFFSET " + strconv.Itoa(offset)
	default:
		return ""
	}
}

func (sqliteDialect) SupportsReturning() bool { return true }
func (sqliteDialect) SupportsFullJoin() bool  { return true }
