// Package builder compiles filter selections into parameter-bound SQL over a
// dataset schema.
package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/schema"
)

// QueryBuilder builds filtered queries for one schema and dialect.
type QueryBuilder struct {
	schema  *schema.Schema
	dialect domain.SQLDialect
}

// NewQueryBuilder creates a new query builder.
func NewQueryBuilder(s *schema.Schema, dialect domain.SQLDialect) *QueryBuilder {
	return &QueryBuilder{
		schema:  s,
		dialect: dialect,
	}
}

// BaseQuery returns the unrestricted join of the fact table to its dimensions.
func (b *QueryBuilder) BaseQuery() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.schema.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.schema.Fact)

	for _, j := range b.schema.Joins {
		sb.WriteString(fmt.Sprintf(" JOIN %s ON %s = %s", j.Table, j.Left, j.Right))
	}

	return sb.String()
}

// Build compiles a selection. Dimensions left at All add no predicate, so an
// empty selection yields BaseQuery with no WHERE clause.
func (b *QueryBuilder) Build(sel domain.Selection) (*domain.CompiledQuery, error) {
	if err := b.checkNames(sel); err != nil {
		return nil, err
	}

	var predicates []domain.Predicate
	for _, d := range b.schema.Dimensions {
		value := sel.Value(d.Name)
		if domain.IsAll(value) {
			continue
		}
		predicates = append(predicates, domain.Predicate{
			Dimension: d.Name,
			Column:    d.Qualified(),
			Value:     value,
		})
	}

	var sqlBuilder strings.Builder
	var args []interface{}
	argIndex := 1

	sqlBuilder.WriteString(b.BaseQuery())

	if len(predicates) > 0 {
		clauses := make([]string, len(predicates))
		for i, p := range predicates {
			clauses[i] = fmt.Sprintf("%s = %s", p.Column, b.placeholder(&argIndex))
			args = append(args, p.Value)
		}
		sqlBuilder.WriteString(" WHERE ")
		sqlBuilder.WriteString(strings.Join(clauses, " AND "))
	}

	return &domain.CompiledQuery{
		SQL: domain.SQL{
			Query:   sqlBuilder.String(),
			Args:    args,
			Dialect: b.dialect,
		},
		Predicates: predicates,
	}, nil
}

// OptionsQuery returns the distinct-values query for a dimension.
func (b *QueryBuilder) OptionsQuery(d schema.Dimension) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s", d.Column, d.Table, d.Column)
}

// checkNames rejects filters the schema does not define. Unknown names left at
// All are tolerated.
func (b *QueryBuilder) checkNames(sel domain.Selection) error {
	var unknown []string
	for name, value := range sel {
		if domain.IsAll(value) {
			continue
		}
		if _, ok := b.schema.Dimension(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", domain.ErrUnknownFilter, strings.Join(unknown, ", "))
}

// placeholder returns the appropriate placeholder for the dialect.
func (b *QueryBuilder) placeholder(argIndex *int) string {
	defer func() { *argIndex++ }()

	switch b.dialect {
	case domain.PostgreSQL:
		return fmt.Sprintf("$%d", *argIndex)
	case domain.MySQL, domain.SQLite, domain.DuckDB:
		return "?"
	default:
		return "?"
	}
}
