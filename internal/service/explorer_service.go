// Package service implements the explorer service: filter options, filtered
// queries and custom SQL over one database adapter.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/adapters/telemetry"
	"github.com/cdi-explorer/cdi/internal/core/query/builder"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/result"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/debug"
)

// Operation names used in logs and metrics.
const (
	OpOptions = "options"
	OpFilter  = "filter"
	OpCustom  = "custom"
)

// User-facing warnings.
const (
	WarnEmptySQL  = "Please enter a SQL query."
	WarnNoMatches = "No data found for the selected filters."
)

// OptionSet is the All sentinel followed by a dimension's distinct values.
type OptionSet struct {
	Dimension schema.Dimension
	Values    []string
}

// Options holds the option sets for every dimension, in schema order.
type Options struct {
	Sets     []OptionSet
	Warnings []string
}

// Lookup returns the option set for a dimension name.
func (o *Options) Lookup(name string) (OptionSet, bool) {
	for _, s := range o.Sets {
		if strings.EqualFold(s.Dimension.Name, name) {
			return s, true
		}
	}
	return OptionSet{}, false
}

// Outcome is the result of one query interaction. Result is never nil.
type Outcome struct {
	Query    *domain.CompiledQuery
	Result   *result.Set
	Warnings []string
	Duration time.Duration

	// Err is the failure behind the warning, if any.
	Err error
}

// Failed reports whether the interaction degraded to an empty result because of an error.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Explorer orchestrates option loading, query building and execution.
type Explorer struct {
	schemas   *schema.Holder
	db        database.Adapter
	telemetry telemetry.Telemetry
}

// NewExplorer creates a new explorer service. A nil telemetry records nothing.
func NewExplorer(schemas *schema.Holder, db database.Adapter, tel telemetry.Telemetry) *Explorer {
	if tel == nil {
		tel = telemetry.NewNoopTelemetry()
	}
	return &Explorer{
		schemas:   schemas,
		db:        db,
		telemetry: tel,
	}
}

// Schema returns the current schema.
func (e *Explorer) Schema() *schema.Schema {
	return e.schemas.Get()
}

// Ping checks that the database is reachable.
func (e *Explorer) Ping(ctx context.Context) error {
	return e.db.Ping(ctx)
}

// Renderer returns a renderer bound to the current schema's geo columns.
func (e *Explorer) Renderer() *render.Renderer {
	lat, lon := e.Schema().GeoColumns()
	return render.NewRenderer(lat, lon)
}

// Options loads the option set of every dimension. A dimension whose table is
// missing or empty degrades to All only, with a warning.
func (e *Explorer) Options(ctx context.Context) *Options {
	s := e.Schema()
	qb := builder.NewQueryBuilder(s, e.db.GetDialect())

	opts := &Options{}
	for _, d := range s.Dimensions {
		set := OptionSet{Dimension: d, Values: []string{domain.All}}

		values, err := e.run(ctx, OpOptions, qb.OptionsQuery(d))
		if err != nil {
			debug.Warn("failed to load filter options", "dimension", d.Name, "error", err)
		}

		if values != nil {
			column := values.ColumnIndex(d.Column)
			if column < 0 && len(values.Columns) > 0 {
				column = 0
			}
			for _, row := range values.Rows {
				if column < 0 {
					break
				}
				if v := result.FormatValue(row[column]); v != "" {
					set.Values = append(set.Values, v)
				}
			}
		}

		if len(set.Values) == 1 {
			opts.Warnings = append(opts.Warnings, fmt.Sprintf("No %s data found.", d.DisplayLabel()))
		}
		opts.Sets = append(opts.Sets, set)
	}
	return opts
}

// Filter compiles sel and runs it. Failures become a warning and an empty result.
func (e *Explorer) Filter(ctx context.Context, sel domain.Selection) *Outcome {
	qb := builder.NewQueryBuilder(e.Schema(), e.db.GetDialect())

	compiled, err := qb.Build(sel)
	if err != nil {
		e.telemetry.RecordError(ctx, telemetry.ErrorInfo{Error: err, Operation: OpFilter})
		return &Outcome{
			Result:   result.Empty(),
			Warnings: []string{fmt.Sprintf("Invalid filter selection: %v", err)},
			Err:      err,
		}
	}

	start := time.Now()
	set, err := e.run(ctx, OpFilter, compiled.SQL.Query, compiled.SQL.Args...)
	outcome := &Outcome{Query: compiled, Result: set, Duration: time.Since(start)}
	if err != nil {
		outcome.Result = result.Empty()
		outcome.Warnings = []string{executionWarning(err)}
		outcome.Err = err
	} else if set.IsEmpty() {
		outcome.Warnings = []string{WarnNoMatches}
	}
	return outcome
}

// Custom runs free-text SQL under the same failure policy as Filter.
func (e *Explorer) Custom(ctx context.Context, query string) *Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Outcome{Result: result.Empty(), Warnings: []string{WarnEmptySQL}, Err: domain.ErrEmptyQuery}
	}

	compiled := &domain.CompiledQuery{
		SQL: domain.SQL{Query: query, Dialect: e.db.GetDialect()},
	}

	start := time.Now()
	set, err := e.run(ctx, OpCustom, query)
	outcome := &Outcome{Query: compiled, Result: set, Duration: time.Since(start)}
	if err != nil {
		outcome.Result = result.Empty()
		outcome.Warnings = []string{executionWarning(err)}
		outcome.Err = err
	}
	return outcome
}

// run executes one query and records it. The error is a *domain.QueryError.
func (e *Explorer) run(ctx context.Context, op, query string, args ...interface{}) (*result.Set, error) {
	start := time.Now()
	set, err := e.db.Query(ctx, query, args...)
	elapsed := time.Since(start)

	info := telemetry.QueryInfo{Operation: op, Duration: elapsed, Success: err == nil}
	if err == nil {
		info.Rows = set.Len()
	}
	e.telemetry.RecordQuery(ctx, info)

	if err != nil {
		e.telemetry.RecordError(ctx, telemetry.ErrorInfo{Error: err, Operation: op, Query: query})
		debug.Debug("query failed", "operation", op, "query", query, "error", err)
		return nil, domain.NewQueryError(op, query, err)
	}

	debug.Debug("query executed", "operation", op, "rows", set.Len(), "duration", elapsed)
	return set, nil
}

func executionWarning(err error) string {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		err = qe.Cause
	}
	return fmt.Sprintf("Error executing query: %v", err)
}
