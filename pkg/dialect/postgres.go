package dialect

import "strconv"

func init() {
	Register(postgresDialect{})
}

// postgresDialect emits PostgreSQL surface syntax: double-quoted identifiers,
// $N placeholders, ::type casts, and LIMIT n OFFSET m.
type postgresDialect struct{}

func (postgresDialect) Name() string     { return "postgres" }
func (postgresDialect) Backend() Backend { return Postgres }

func (postgresDialect) QuoteIdent(name string) string {
	return quoteWith(name, `"`)
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) CastPlaceholder(n int, typeName string) string {
	return "$" + strconv.Itoa(n) + "::" + typeName
}

func (postgresDialect) LimitClause(limit, offset int) string {
	switch {
	case limit >= 0 && offset > 0:
		return "LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit >= 0:
		return "LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		return "OFFSET " + strconv.Itoa(offset)
	default:
		return ""
	}
}

func (postgresDialect) SupportsReturning() bool { return true }
func (postgresDialect) SupportsFullJoin() bool  { return true }
