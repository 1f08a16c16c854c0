package service_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/adapters/database/sqlite"
	"github.com/cdi-explorer/cdi/internal/adapters/telemetry"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/result"
	"github.com/cdi-explorer/cdi/internal/core/sample"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/service"
)

type recordingTelemetry struct {
	mu      sync.Mutex
	queries []telemetry.QueryInfo
	errors  []telemetry.ErrorInfo
}

func (r *recordingTelemetry) RecordQuery(ctx context.Context, info telemetry.QueryInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, info)
}

func (r *recordingTelemetry) RecordError(ctx context.Context, info telemetry.ErrorInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, info)
}

func (r *recordingTelemetry) RecordRequest(ctx context.Context, info telemetry.RequestInfo) {}
func (r *recordingTelemetry) Handler() http.Handler                                       { return nil }
func (r *recordingTelemetry) Close(ctx context.Context) error                             { return nil }

func seededDB(t *testing.T) database.Adapter {
	t.Helper()
	ctx := context.Background()

	db := sqlite.NewSQLiteAdapter(database.Config{URL: ":memory:"})
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { db.Disconnect(ctx) })

	require.NoError(t, sample.Seed(ctx, db))
	return db
}

func newExplorer(t *testing.T, s *schema.Schema) (*service.Explorer, *recordingTelemetry) {
	tel := &recordingTelemetry{}
	return service.NewExplorer(schema.NewHolder(s), seededDB(t), tel), tel
}

func TestExplorer_Options(t *testing.T) {
	e, _ := newExplorer(t, schema.Default())

	opts := e.Options(context.Background())
	assert.Empty(t, opts.Warnings)
	require.Len(t, opts.Sets, 3)

	year, ok := opts.Lookup("Year")
	require.True(t, ok)
	assert.Equal(t, []string{"All", "2019", "2020", "2021"}, year.Values)

	location, _ := opts.Lookup("location")
	assert.Equal(t, []string{"All", "Guam", "New York", "Ohio", "Texas"}, location.Values)

	topic, _ := opts.Lookup("topic")
	assert.Equal(t, []string{"All", "Alcohol", "Asthma", "Diabetes"}, topic.Values)

	_, ok = opts.Lookup("datasource")
	assert.False(t, ok)
}

func TestExplorer_Options_MissingTable(t *testing.T) {
	s := schema.Default()
	s.Joins = append(s.Joins, schema.Join{Table: "Stratification", Left: "DataValue.StratificationID", Right: "Stratification.StratificationID"})
	s.Dimensions = append(s.Dimensions, schema.Dimension{Name: "group", Label: "Group", Table: "Stratification", Column: "Stratification1"})
	require.NoError(t, s.Validate())

	e, tel := newExplorer(t, s)
	opts := e.Options(context.Background())

	assert.Equal(t, []string{"No Group data found."}, opts.Warnings)
	group, ok := opts.Lookup("group")
	require.True(t, ok)
	assert.Equal(t, []string{"All"}, group.Values)
	require.Len(t, tel.errors, 1)
	assert.Equal(t, service.OpOptions, tel.errors[0].Operation)
}

func TestExplorer_Filter(t *testing.T) {
	tests := []struct {
		name      string
		sel       domain.Selection
		wantRows  int
		wantWhere bool
	}{
		{"all", domain.Selection{}, sample.Rows, false},
		{"explicit all", domain.Selection{"year": "All", "topic": ""}, sample.Rows, false},
		{"year", domain.Selection{"year": "2020"}, 4, true},
		{"year and topic", domain.Selection{"year": "2020", "topic": "Alcohol"}, 2, true},
		{"location and topic", domain.Selection{"location": "Ohio", "topic": "Diabetes"}, 3, true},
	}

	e, _ := newExplorer(t, schema.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Filter(context.Background(), tt.sel)

			require.False(t, out.Failed(), "warnings: %v", out.Warnings)
			assert.Empty(t, out.Warnings)
			assert.Equal(t, tt.wantRows, out.Result.Len())
			assert.Equal(t, tt.wantWhere, out.Query.HasWhere())
			assert.Equal(t, []string{"Year", "LocationDesc", "Topic", "Question", "DataValue", "DataValueUnit"}, out.Result.Columns)
		})
	}
}

func TestExplorer_Filter_ValuesAreBound(t *testing.T) {
	e, _ := newExplorer(t, schema.Default())

	out := e.Filter(context.Background(), domain.Selection{"location": "Ohio' OR '1'='1"})

	assert.False(t, out.Failed())
	assert.True(t, out.Result.IsEmpty())
	assert.Equal(t, []string{service.WarnNoMatches}, out.Warnings)
	assert.Equal(t, []interface{}{"Ohio' OR '1'='1"}, out.Query.SQL.Args)
}

func TestExplorer_Filter_UnknownDimension(t *testing.T) {
	e, tel := newExplorer(t, schema.Default())

	out := e.Filter(context.Background(), domain.Selection{"datasource": "BRFSS"})

	assert.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, domain.ErrUnknownFilter)
	assert.True(t, out.Result.IsEmpty())
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "datasource")
	assert.Len(t, tel.errors, 1)
	assert.Empty(t, tel.queries)
}

func TestExplorer_Filter_Hosted(t *testing.T) {
	e, _ := newExplorer(t, schema.Hosted())

	out := e.Filter(context.Background(), domain.Selection{"datasource": "NVSS"})
	require.False(t, out.Failed())
	assert.Equal(t, 3, out.Result.Len())

	all := e.Filter(context.Background(), nil)
	view := e.Renderer().Render(all.Result, &render.ChartRequest{Kind: render.Map})
	require.NotNil(t, view.Chart)
	assert.Len(t, view.Chart.Points, sample.Rows-1)
}

func TestExplorer_Custom(t *testing.T) {
	e, tel := newExplorer(t, schema.Default())
	ctx := context.Background()

	out := e.Custom(ctx, "  SELECT Topic FROM Topic ORDER BY Topic  ")
	require.False(t, out.Failed())
	assert.Equal(t, "SELECT Topic FROM Topic ORDER BY Topic", out.Query.SQL.Query)
	assert.Equal(t, [][]string{{"Alcohol"}, {"Asthma"}, {"Diabetes"}}, out.Result.Strings())

	empty := e.Custom(ctx, "   ")
	assert.ErrorIs(t, empty.Err, domain.ErrEmptyQuery)
	assert.Equal(t, []string{service.WarnEmptySQL}, empty.Warnings)

	bad := e.Custom(ctx, "SELECT * FROM Nowhere")
	assert.True(t, bad.Failed())
	assert.True(t, bad.Result.IsEmpty())
	require.Len(t, bad.Warnings, 1)
	assert.Contains(t, bad.Warnings[0], "Error executing query: no such table: Nowhere")

	var qe *domain.QueryError
	require.ErrorAs(t, bad.Err, &qe)
	assert.Equal(t, service.OpCustom, qe.Operation)

	require.Len(t, tel.queries, 2)
	assert.True(t, tel.queries[0].Success)
	assert.Equal(t, 3, tel.queries[0].Rows)
	assert.False(t, tel.queries[1].Success)
}

type brokenAdapter struct{}

func (brokenAdapter) Connect(ctx context.Context) error    { return nil }
func (brokenAdapter) Disconnect(ctx context.Context) error { return nil }
func (brokenAdapter) Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errors.New("connection refused")
}
func (brokenAdapter) Query(ctx context.Context, query string, args ...interface{}) (*result.Set, error) {
	return nil, errors.New("connection refused")
}
func (brokenAdapter) Ping(ctx context.Context) error                    { return errors.New("connection refused") }
func (brokenAdapter) ServerVersion(ctx context.Context) (string, error) { return "", nil }
func (brokenAdapter) GetDialect() domain.SQLDialect                     { return domain.PostgreSQL }

func TestExplorer_DatabaseDown(t *testing.T) {
	e := service.NewExplorer(schema.NewHolder(schema.Default()), brokenAdapter{}, nil)
	ctx := context.Background()

	opts := e.Options(ctx)
	assert.Equal(t, []string{"No Year data found.", "No Location data found.", "No Topic data found."}, opts.Warnings)

	out := e.Filter(ctx, domain.Selection{"year": "2019"})
	assert.True(t, out.Failed())
	assert.Equal(t, []string{"Error executing query: connection refused"}, out.Warnings)
	assert.Equal(t, "Year.Year = $1", out.Query.SQL.Query[len(out.Query.SQL.Query)-len("Year.Year = $1"):])
	assert.NotNil(t, out.Result)
}
