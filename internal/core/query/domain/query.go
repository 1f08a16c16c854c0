// Package domain contains the core entities of the filtered-query domain.
package domain

import "strings"

// All is the sentinel value meaning "no filter" for a dimension.
const All = "All"

// Selection maps a filter name (year, location, topic, datasource) to the
// value picked by the user. A missing key, an empty value and All are
// equivalent: the dimension is not restricted.
type Selection map[string]string

// Set records a value for a filter name and returns the selection for chaining.
func (s Selection) Set(name, value string) Selection {
	s[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	return s
}

// Value returns the selected value for name, or All when unset.
func (s Selection) Value(name string) string {
	for k, v := range s {
		if strings.EqualFold(k, name) {
			if IsAll(v) {
				return All
			}
			return v
		}
	}
	return All
}

// IsEmpty reports whether no dimension is restricted.
func (s Selection) IsEmpty() bool {
	for _, v := range s {
		if !IsAll(v) {
			return false
		}
	}
	return true
}

// IsAll reports whether v is the no-filter sentinel.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Predicate is one bound restriction on a dimension column.
type Predicate struct {
	Dimension string
	Column    string // qualified Table.Column
	Value     string
}

// SQL is an executable statement with its bound arguments.
type SQL struct {
	Query   string
	Args    []interface{}
	Dialect SQLDialect
}

// SQLDialect represents a SQL dialect.
type SQLDialect string

const (
	// PostgreSQL dialect.
	PostgreSQL SQLDialect = "postgres"
	// MySQL dialect.
	MySQL SQLDialect = "mysql"
	// SQLite dialect.
	SQLite SQLDialect = "sqlite"
	// DuckDB dialect.
	DuckDB SQLDialect = "duckdb"
)

// CompiledQuery is a filtered query ready for execution.
type CompiledQuery struct {
	SQL        SQL
	Predicates []Predicate
}

// HasWhere reports whether the query restricts any dimension.
func (c *CompiledQuery) HasWhere() bool {
	return len(c.Predicates) > 0
}
