// Package qb implements a fluent, dialect-aware SQL query builder. A Builder
// accumulates table, column, condition, join, ordering and paging state
// through chained calls, then compiles to a SQL string plus an ordered
// parameter list via one of the terminal Build methods. Surface syntax
// (quoting, placeholders, LIMIT forms, feature support) is delegated to the
// selected pkg/dialect backend.
//
// Builders are single-owner values: chainers mutate the receiver, terminal
// builds only read it, so one builder may emit several statements.
package qb

import (
	"github.com/veranda-web/veranda/pkg/dialect"
	"github.com/veranda-web/veranda/pkg/value"
)

// connector values joining a condition to its predecessor.
const (
	connAnd = "AND"
	connOr  = "OR"
)

// whereCond is one WHERE clause entry. An empty column marks raw SQL carried
// verbatim in operator. IN/NOT IN/BETWEEN conditions arrive with their values
// already serialized into operator and bind no parameter.
type whereCond struct {
	column    string
	operator  string
	value     value.Value
	connector string
	hasParam  bool
}

// joinClause is one JOIN entry; on is emitted verbatim after ON.
type joinClause struct {
	kind  string
	table string
	on    string
}

// orderClause is one ORDER BY entry.
type orderClause struct {
	column string
	desc   bool
}

// Builder accumulates query state. Construct with New, chain clause calls,
// then call Build, BuildInsert, BuildUpdate or BuildDelete.
type Builder struct {
	backend dialect.Backend
	d       dialect.Dialect
	err     error

	table     string
	alias     string
	columns   []string
	wheres    []whereCond
	joins     []joinClause
	groupBys  []string
	orderBys  []orderClause
	returning []string
	limit     int
	offset    int
}

// New creates a Builder targeting the given backend.
func New(b dialect.Backend) *Builder {
	d, ok := dialect.For(b)
	builder := &Builder{backend: b, d: d, limit: -1}
	if !ok {
		builder.err = &UnsupportedFeatureError{Feature: "backend " + b.String(), Backend: b}
	}
	return builder
}

// From sets the target table.
func (b *Builder) From(table string) *Builder {
	b.table = table
	b.alias = ""
	return b
}

// FromAs sets the target table with an alias.
func (b *Builder) FromAs(table, alias string) *Builder {
	b.table = table
	b.alias = alias
	return b
}

// Select appends result columns. Without any Select call the query selects *.
// Entries containing spaces or parentheses (expressions, aliases) are emitted
// verbatim; plain names are quoted per dialect.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

func (b *Builder) where(connector, column, operator string, v value.Value, hasParam bool) *Builder {
	b.wheres = append(b.wheres, whereCond{
		column:    column,
		operator:  operator,
		value:     v,
		connector: connector,
		hasParam:  hasParam,
	})
	return b
}

// WhereEq adds an AND-joined equality condition.
func (b *Builder) WhereEq(column string, v any) *Builder {
	return b.where(connAnd, column, "=", value.From(v), true)
}

// WhereNe adds an AND-joined inequality condition.
func (b *Builder) WhereNe(column string, v any) *Builder {
	return b.where(connAnd, column, "!=", value.From(v), true)
}

// WhereGt adds an AND-joined greater-than condition.
func (b *Builder) WhereGt(column string, v any) *Builder {
	return b.where(connAnd, column, ">", value.From(v), true)
}

// WhereLt adds an AND-joined less-than condition.
func (b *Builder) WhereLt(column string, v any) *Builder {
	return b.where(connAnd, column, "<", value.From(v), true)
}

// WhereGte adds an AND-joined greater-or-equal condition.
func (b *Builder) WhereGte(column string, v any) *Builder {
	return b.where(connAnd, column, ">=", value.From(v), true)
}

// WhereLte adds an AND-joined less-or-equal condition.
func (b *Builder) WhereLte(column string, v any) *Builder {
	return b.where(connAnd, column, "<=", value.From(v), true)
}

// WhereLike adds an AND-joined LIKE condition.
func (b *Builder) WhereLike(column string, pattern string) *Builder {
	return b.where(connAnd, column, "LIKE", value.String(pattern), true)
}

// WhereNotLike adds an AND-joined NOT LIKE condition.
func (b *Builder) WhereNotLike(column string, pattern string) *Builder {
	return b.where(connAnd, column, "NOT LIKE", value.String(pattern), true)
}

// WhereNull adds an AND-joined IS NULL condition. No parameter is bound.
func (b *Builder) WhereNull(column string) *Builder {
	return b.where(connAnd, column, "IS NULL", value.Null(), false)
}

// WhereNotNull adds an AND-joined IS NOT NULL condition. No parameter is bound.
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.where(connAnd, column, "IS NOT NULL", value.Null(), false)
}

// WhereIn adds an AND-joined IN condition. The values are serialized into the
// SQL text as literals, not bound as parameters.
func (b *Builder) WhereIn(column string, vals ...any) *Builder {
	return b.where(connAnd, column, inOperator("IN", vals), value.Null(), false)
}

// WhereNotIn adds an AND-joined NOT IN condition with literal values.
func (b *Builder) WhereNotIn(column string, vals ...any) *Builder {
	return b.where(connAnd, column, inOperator("NOT IN", vals), value.Null(), false)
}

// WhereBetween adds an AND-joined BETWEEN condition with literal bounds.
func (b *Builder) WhereBetween(column string, lo, hi any) *Builder {
	return b.where(connAnd, column, betweenOperator(lo, hi), value.Null(), false)
}

// WhereRaw adds an AND-joined raw SQL fragment, emitted verbatim.
func (b *Builder) WhereRaw(sql string) *Builder {
	return b.where(connAnd, "", sql, value.Null(), false)
}

// OrWhereEq adds an OR-joined equality condition.
func (b *Builder) OrWhereEq(column string, v any) *Builder {
	return b.where(connOr, column, "=", value.From(v), true)
}

// OrWhereNe adds an OR-joined inequality condition.
func (b *Builder) OrWhereNe(column string, v any) *Builder {
	return b.where(connOr, column, "!=", value.From(v), true)
}

// OrWhereGt adds an OR-joined greater-than condition.
func (b *Builder) OrWhereGt(column string, v any) *Builder {
	return b.where(connOr, column, ">", value.From(v), true)
}

// OrWhereLt adds an OR-joined less-than condition.
func (b *Builder) OrWhereLt(column string, v any) *Builder {
	return b.where(connOr, column, "<", value.From(v), true)
}

// OrWhereGte adds an OR-joined greater-or-equal condition.
func (b *Builder) OrWhereGte(column string, v any) *Builder {
	return b.where(connOr, column, ">=", value.From(v), true)
}

// OrWhereLte adds an OR-joined less-or-equal condition.
func (b *Builder) OrWhereLte(column string, v any) *Builder {
	return b.where(connOr, column, "<=", value.From(v), true)
}

// OrWhereLike adds an OR-joined LIKE condition.
func (b *Builder) OrWhereLike(column string, pattern string) *Builder {
	return b.where(connOr, column, "LIKE", value.String(pattern), true)
}

// OrWhereNotLike adds an OR-joined NOT LIKE condition.
func (b *Builder) OrWhereNotLike(column string, pattern string) *Builder {
	return b.where(connOr, column, "NOT LIKE", value.String(pattern), true)
}

// OrWhereNull adds an OR-joined IS NULL condition.
func (b *Builder) OrWhereNull(column string) *Builder {
	return b.where(connOr, column, "IS NULL", value.Null(), false)
}

// OrWhereNotNull adds an OR-joined IS NOT NULL condition.
func (b *Builder) OrWhereNotNull(column string) *Builder {
	return b.where(connOr, column, "IS NOT NULL", value.Null(), false)
}

// OrWhereIn adds an OR-joined IN condition with literal values.
func (b *Builder) OrWhereIn(column string, vals ...any) *Builder {
	return b.where(connOr, column, inOperator("IN", vals), value.Null(), false)
}

// OrWhereNotIn adds an OR-joined NOT IN condition with literal values.
func (b *Builder) OrWhereNotIn(column string, vals ...any) *Builder {
	return b.where(connOr, column, inOperator("NOT IN", vals), value.Null(), false)
}

// OrWhereBetween adds an OR-joined BETWEEN condition with literal bounds.
func (b *Builder) OrWhereBetween(column string, lo, hi any) *Builder {
	return b.where(connOr, column, betweenOperator(lo, hi), value.Null(), false)
}

// OrWhereRaw adds an OR-joined raw SQL fragment.
func (b *Builder) OrWhereRaw(sql string) *Builder {
	return b.where(connOr, "", sql, value.Null(), false)
}

// Join adds an inner join. The on condition is emitted verbatim.
func (b *Builder) Join(table, on string) *Builder {
	b.joins = append(b.joins, joinClause{kind: "JOIN", table: table, on: on})
	return b
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table, on string) *Builder {
	b.joins = append(b.joins, joinClause{kind: "LEFT JOIN", table: table, on: on})
	return b
}

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(table, on string) *Builder {
	b.joins = append(b.joins, joinClause{kind: "RIGHT JOIN", table: table, on: on})
	return b
}

// FullJoin adds a FULL JOIN. Backends without FULL JOIN support reject it at
// build time with an UnsupportedFeatureError.
func (b *Builder) FullJoin(table, on string) *Builder {
	b.joins = append(b.joins, joinClause{kind: "FULL JOIN", table: table, on: on})
	return b
}

// OrderBy appends an ascending ORDER BY column.
func (b *Builder) OrderBy(column string) *Builder {
	b.orderBys = append(b.orderBys, orderClause{column: column})
	return b
}

// OrderByDesc appends a descending ORDER BY column.
func (b *Builder) OrderByDesc(column string) *Builder {
	b.orderBys = append(b.orderBys, orderClause{column: column, desc: true})
	return b
}

// GroupBy appends GROUP BY columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groupBys = append(b.groupBys, columns...)
	return b
}

// Limit sets the maximum row count. Negative values clear the limit.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		n = -1
	}
	b.limit = n
	return b
}

// Offset sets the number of rows to skip. Values below one clear the offset.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		n = 0
	}
	b.offset = n
	return b
}

// Paginate sets limit and offset from a one-based page number and page size.
// Page numbers and sizes below one are treated as one.
func (b *Builder) Paginate(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	b.limit = perPage
	b.offset = (page - 1) * perPage
	return b
}

// Returning sets the RETURNING columns for INSERT/UPDATE/DELETE. Backends
// without RETURNING support reject it at build time.
func (b *Builder) Returning(columns ...string) *Builder {
	b.returning = append(b.returning, columns...)
	return b
}

// Backend returns the backend this builder targets.
func (b *Builder) Backend() dialect.Backend {
	return b.backend
}
