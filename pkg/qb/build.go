package qb

import (
	"sort"
	"strings"

	"github.com/veranda-web/veranda/pkg/value"
)

// Build compiles a SELECT statement. Clauses are assembled in fixed order:
// SELECT, FROM, joins, WHERE, GROUP BY, ORDER BY, LIMIT/OFFSET.
func (b *Builder) Build() (string, []value.Value, error) {
	if err := b.precheck(); err != nil {
		return "", nil, err
	}
	for _, j := range b.joins {
		if j.kind == "FULL JOIN" && !b.d.SupportsFullJoin() {
			return "", nil, &UnsupportedFeatureError{Feature: "FULL JOIN", Backend: b.backend}
		}
	}

	params := make([]value.Value, 0, len(b.wheres))
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(b.columnList(b.columns))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.quoteQualified(b.table))
	if b.alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(b.d.QuoteIdent(b.alias))
	}
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j.kind)
		sb.WriteString(" ")
		sb.WriteString(b.quoteQualified(j.table))
		sb.WriteString(" ON ")
		sb.WriteString(j.on)
	}
	if where := b.buildWhereClause(&params); where != "" {
		sb.WriteString(" ")
		sb.WriteString(where)
	}
	if len(b.groupBys) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(b.columnList(b.groupBys))
	}
	if len(b.orderBys) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range b.orderBys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.quoteQualified(o.column))
			if o.desc {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
		}
	}
	if lc := b.d.LimitClause(b.limit, b.offset); lc != "" {
		sb.WriteString(" ")
		sb.WriteString(lc)
	}
	return sb.String(), params, nil
}

// BuildInsert compiles an INSERT statement from a column/value map. Columns
// are emitted in sorted order so the output is deterministic. An empty map is
// an InvalidSyntaxError.
func (b *Builder) BuildInsert(data map[string]value.Value) (string, []value.Value, error) {
	if err := b.precheck(); err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, &InvalidSyntaxError{Detail: "INSERT requires at least one column"}
	}
	returning, err := b.returningClause()
	if err != nil {
		return "", nil, err
	}

	cols := sortedColumns(data)
	params := make([]value.Value, 0, len(cols))
	var sb, vals strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.quoteQualified(b.table))
	sb.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
			vals.WriteString(", ")
		}
		sb.WriteString(b.d.QuoteIdent(c))
		vals.WriteString(b.appendParam(&params, data[c]))
	}
	sb.WriteString(") VALUES (")
	sb.WriteString(vals.String())
	sb.WriteString(")")
	sb.WriteString(returning)
	return sb.String(), params, nil
}

// BuildUpdate compiles an UPDATE statement from a column/value map, reusing
// the builder's WHERE conditions. SET columns are emitted in sorted order and
// bind parameters before the WHERE parameters.
func (b *Builder) BuildUpdate(data map[string]value.Value) (string, []value.Value, error) {
	if err := b.precheck(); err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, &InvalidSyntaxError{Detail: "UPDATE requires at least one column"}
	}
	returning, err := b.returningClause()
	if err != nil {
		return "", nil, err
	}

	cols := sortedColumns(data)
	params := make([]value.Value, 0, len(cols)+len(b.wheres))
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.quoteQualified(b.table))
	sb.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.d.QuoteIdent(c))
		sb.WriteString(" = ")
		sb.WriteString(b.appendParam(&params, data[c]))
	}
	if where := b.buildWhereClause(&params); where != "" {
		sb.WriteString(" ")
		sb.WriteString(where)
	}
	sb.WriteString(returning)
	return sb.String(), params, nil
}

// BuildDelete compiles a DELETE statement reusing the builder's WHERE
// conditions.
func (b *Builder) BuildDelete() (string, []value.Value, error) {
	if err := b.precheck(); err != nil {
		return "", nil, err
	}
	returning, err := b.returningClause()
	if err != nil {
		return "", nil, err
	}

	params := make([]value.Value, 0, len(b.wheres))
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.quoteQualified(b.table))
	if where := b.buildWhereClause(&params); where != "" {
		sb.WriteString(" ")
		sb.WriteString(where)
	}
	sb.WriteString(returning)
	return sb.String(), params, nil
}

// buildWhereClause renders the WHERE text shared by SELECT, UPDATE and
// DELETE, appending bound parameters to params in condition order.
func (b *Builder) buildWhereClause(params *[]value.Value) string {
	if len(b.wheres) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("WHERE ")
	for i, c := range b.wheres {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(c.connector)
			sb.WriteString(" ")
		}
		switch {
		case c.column == "":
			sb.WriteString(c.operator)
		case !c.hasParam:
			sb.WriteString(b.quoteQualified(c.column))
			sb.WriteString(" ")
			sb.WriteString(c.operator)
		default:
			sb.WriteString(b.quoteQualified(c.column))
			sb.WriteString(" ")
			sb.WriteString(c.operator)
			sb.WriteString(" ")
			sb.WriteString(b.appendParam(params, c.value))
		}
	}
	return sb.String()
}

func (b *Builder) precheck() error {
	if b.err != nil {
		return b.err
	}
	if b.table == "" {
		return &MissingClauseError{Clause: "from"}
	}
	return nil
}

func (b *Builder) returningClause() (string, error) {
	if len(b.returning) == 0 {
		return "", nil
	}
	if !b.d.SupportsReturning() {
		return "", &UnsupportedFeatureError{Feature: "RETURNING", Backend: b.backend}
	}
	return " RETURNING " + b.columnList(b.returning), nil
}

// appendParam binds v as the next positional parameter and returns its
// placeholder text. Typed-enum strings ("active::status_type") bind the bare
// value behind a cast placeholder where the dialect supports casts; other
// backends bind the bare value behind a plain placeholder.
func (b *Builder) appendParam(params *[]value.Value, v value.Value) string {
	n := len(*params) + 1
	if s, ok := v.AsString(); ok {
		if raw, pgType, isEnum := value.SplitEnum(s); isEnum {
			*params = append(*params, value.String(raw))
			return b.d.CastPlaceholder(n, pgType)
		}
	}
	*params = append(*params, v)
	return b.d.Placeholder(n)
}

// quoteQualified quotes a possibly dot-qualified name part by part. Stars
// pass through unquoted, as do entries containing spaces or parentheses
// (expressions and aliased projections).
func (b *Builder) quoteQualified(name string) string {
	if name == "*" || strings.ContainsAny(name, " (") {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = b.d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

func (b *Builder) columnList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = b.quoteQualified(c)
	}
	return strings.Join(out, ", ")
}

func sortedColumns(data map[string]value.Value) []string {
	cols := make([]string, 0, len(data))
	for c := range data {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// inOperator serializes IN/NOT IN values into the operator text itself; the
// values are embedded as SQL literals rather than bound as parameters.
func inOperator(keyword string, vals []any) string {
	lits := make([]string, len(vals))
	for i, v := range vals {
		lits[i] = sqlLiteral(value.From(v))
	}
	return keyword + " (" + strings.Join(lits, ", ") + ")"
}

// betweenOperator serializes BETWEEN bounds into the operator text.
func betweenOperator(lo, hi any) string {
	return "BETWEEN " + sqlLiteral(value.From(lo)) + " AND " + sqlLiteral(value.From(hi))
}

// sqlLiteral renders v as a SQL literal. Strings are single-quoted with
// embedded quotes doubled; arrays and objects embed as their JSON text in a
// quoted string.
func sqlLiteral(v value.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	if bv, ok := v.AsBool(); ok {
		if bv {
			return "TRUE"
		}
		return "FALSE"
	}
	if _, ok := v.AsNumber(); ok {
		return v.Str()
	}
	return "'" + strings.ReplaceAll(v.Str(), "'", "''") + "'"
}
