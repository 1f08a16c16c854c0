// Package sample creates a small CDI database for demos and tests. The
// tables cover both the default and the hosted schema.
package sample

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Execer runs statements. database.Adapter satisfies it.
type Execer interface {
	Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetDialect() domain.SQLDialect
}

var ddl = []string{
	"CREATE TABLE Year (YearID INTEGER PRIMARY KEY, Year INTEGER NOT NULL)",
	"CREATE TABLE Location (LocationID INTEGER PRIMARY KEY, LocationDesc VARCHAR(128) NOT NULL, Latitude DOUBLE PRECISION, Longitude DOUBLE PRECISION)",
	"CREATE TABLE Topic (TopicID INTEGER PRIMARY KEY, Topic VARCHAR(128) NOT NULL)",
	"CREATE TABLE Question (QuestionID INTEGER PRIMARY KEY, TopicID INTEGER NOT NULL, Question VARCHAR(255) NOT NULL)",
	"CREATE TABLE DataSource (DataSourceID INTEGER PRIMARY KEY, DataSource VARCHAR(64) NOT NULL)",
	"CREATE TABLE DataValue (DataValueID INTEGER PRIMARY KEY, YearID INTEGER NOT NULL, LocationID INTEGER NOT NULL, QuestionID INTEGER NOT NULL, DataSourceID INTEGER NOT NULL, DataValue DOUBLE PRECISION, DataValueUnit VARCHAR(32))",
}

type table struct {
	name    string
	columns string
	rows    [][]interface{}
}

var tables = []table{
	{"Year", "YearID, Year", [][]interface{}{
		{1, 2019}, {2, 2020}, {3, 2021},
	}},
	{"Location", "LocationID, LocationDesc, Latitude, Longitude", [][]interface{}{
		{1, "Ohio", 40.06, -82.40},
		{2, "Texas", 31.17, -100.08},
		{3, "New York", 42.83, -75.54},
		{4, "Guam", nil, nil},
	}},
	{"Topic", "TopicID, Topic", [][]interface{}{
		{1, "Diabetes"}, {2, "Asthma"}, {3, "Alcohol"},
	}},
	{"Question", "QuestionID, TopicID, Question", [][]interface{}{
		{1, 1, "Diagnosed diabetes among adults"},
		{2, 2, "Current asthma among adults"},
		{3, 3, "Binge drinking prevalence among adults"},
	}},
	{"DataSource", "DataSourceID, DataSource", [][]interface{}{
		{1, "BRFSS"}, {2, "NVSS"},
	}},
	{"DataValue", "DataValueID, YearID, LocationID, QuestionID, DataSourceID, DataValue, DataValueUnit", [][]interface{}{
		{1, 1, 1, 1, 1, 11.3, "%"},
		{2, 2, 1, 1, 1, 12.1, "%"},
		{3, 3, 1, 1, 1, 12.4, "%"},
		{4, 1, 2, 1, 1, 12.0, "%"},
		{5, 2, 2, 2, 1, 8.1, "%"},
		{6, 3, 2, 3, 2, 16.2, "%"},
		{7, 1, 3, 2, 1, 9.9, "%"},
		{8, 2, 3, 3, 2, 17.5, "%"},
		{9, 3, 4, 1, 1, nil, "%"},
		{10, 2, 1, 3, 2, 18.0, "%"},
	}},
}

// Rows is the number of fact rows Seed inserts.
const Rows = 10

// Seed creates and fills the sample tables. It fails if they already exist.
func Seed(ctx context.Context, db Execer) error {
	for _, stmt := range ddl {
		if _, err := db.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create sample table: %w", err)
		}
	}

	for _, t := range tables {
		insert := insertStatement(db.GetDialect(), t)
		for _, row := range t.rows {
			if _, err := db.Execute(ctx, insert, row...); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", t.name, err)
			}
		}
	}
	return nil
}

func insertStatement(dialect domain.SQLDialect, t table) string {
	n := len(t.rows[0])
	placeholders := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			placeholders += ", "
		}
		if dialect == domain.PostgreSQL {
			placeholders += fmt.Sprintf("$%d", i)
		} else {
			placeholders += "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, t.columns, placeholders)
}
