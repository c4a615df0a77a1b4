package dialect

import "strconv"

func init() {
	Register(mysqlDialect{})
	Register(mariadbDialect{})
}

// mysqlDialect emits MySQL surface syntax: backtick-quoted identifiers,
// ? placeholders, and LIMIT offset, count. MySQL has no RETURNING clause and
// no FULL OUTER JOIN.
type mysqlDialect struct{}

func (mysqlDialect) Name() string     { return "mysql" }
func (mysqlDialect) Backend() Backend { return MySQL }

func (mysqlDialect) QuoteIdent(name string) string {
	return quoteWith(name, "`")
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) CastPlaceholder(int, string) string { return "?" }

func (mysqlDialect) LimitClause(limit, offset int) string {
	switch {
	case limit >= 0 && offset > 0:
		return "LIMIT " + strconv.Itoa(offset) + ", " + strconv.Itoa(limit)
	case limit >= 0:
		return "LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		// MySQL cannot express an offset without a limit; the documented
		// idiom is an effectively unbounded row count.
		return "LIMIT " + strconv.Itoa(offset) + ", 18446744073709551615"
	default:
		return ""
	}
}

func (mysqlDialect) SupportsReturning() bool { return false }
func (mysqlDialect) SupportsFullJoin() bool  { return false }

// mariadbDialect shares MySQL's surface syntax under its own backend name.
type mariadbDialect struct {
	mysqlDialect
}

func (mariadbDialect) Name() string     { return "mariadb" }
func (mariadbDialect) Backend() Backend { return MariaDB }
