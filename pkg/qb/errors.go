package qb

import (
	"fmt"

	"github.com/veranda-web/veranda/pkg/dialect"
)

// MissingClauseError reports a terminal build call on a builder that lacks a
// required clause, such as Build without From.
type MissingClauseError struct {
	Clause string
}

func (e *MissingClauseError) Error() string {
	return fmt.Sprintf("missing %s clause", e.Clause)
}

// InvalidSyntaxError reports builder input that cannot form a valid
// statement, such as an INSERT with no data.
type InvalidSyntaxError struct {
	Detail string
}

func (e *InvalidSyntaxError) Error() string {
	return "invalid query: " + e.Detail
}

// UnsupportedFeatureError reports a requested feature the target backend
// cannot express, such as RETURNING or FULL JOIN on MySQL.
type UnsupportedFeatureError struct {
	Feature string
	Backend dialect.Backend
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Feature, e.Backend)
}
