package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/adapters/database/sqlite"
	"github.com/cdi-explorer/cdi/internal/adapters/storage"
	"github.com/cdi-explorer/cdi/internal/adapters/telemetry"
	"github.com/cdi-explorer/cdi/internal/core/render"
	"github.com/cdi-explorer/cdi/internal/core/sample"
	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/service"
)

type fixture struct {
	server  *Server
	handler http.Handler
	storage *storage.FileStorage
	db      database.Adapter
}

func newFixture(t *testing.T, s *schema.Schema) *fixture {
	t.Helper()
	ctx := context.Background()

	db := sqlite.NewSQLiteAdapter(database.Config{URL: ":memory:"})
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { db.Disconnect(ctx) })
	require.NoError(t, sample.Seed(ctx, db))

	tel, err := telemetry.NewTelemetry(&telemetry.Config{Type: "prometheus"})
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	srv, err := New(service.NewExplorer(schema.NewHolder(s), db, tel), Config{
		Addr:      "127.0.0.1:0",
		Storage:   store,
		Telemetry: tel,
	})
	require.NoError(t, err)

	return &fixture{server: srv, handler: srv.Handler(), storage: store, db: db}
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	f := newFixture(t, schema.Default())

	tests := []struct {
		name     string
		target   string
		contains []string
		excludes []string
	}{
		{
			name:     "no filters",
			target:   "/",
			contains: []string{"Select Year", "Select Location", "<option value=\"Ohio\">Ohio</option>", "Bar Chart", "/chart.png?chart=bar"},
			excludes: []string{"WHERE"},
		},
		{
			name:     "year selected",
			target:   "/?year=2020&chart=line",
			contains: []string{`<option value="2020" selected>2020</option>`, "WHERE Year.Year = ?", "Line Chart"},
		},
		{
			name:     "no matches",
			target:   "/?year=2021&topic=Asthma",
			contains: []string{service.WarnNoMatches, render.WarnNoData},
			excludes: []string{"<img"},
		},
		{
			name:     "map without coordinates",
			target:   "/?chart=map",
			contains: []string{render.WarnNoGeo},
			excludes: []string{"<img"},
		},
		{
			name:     "bad chart kind",
			target:   "/?chart=pie",
			contains: []string{"unknown chart type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, schema.Default())

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestChartImage(t *testing.T) {
	f := newFixture(t, schema.Hosted())

	rec := f.do(t, http.MethodGet, "/chart.png?chart=bar&x=LocationDesc&y=DataValue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = f.do(t, http.MethodGet, "/chart.svg?chart=map", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = f.do(t, http.MethodGet, "/chart.png?chart=bar&x=Nope", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `Column "Nope" is not in the result.`)
}

func TestDownloadCSV(t *testing.T) {
	f := newFixture(t, schema.Default())

	rec := f.do(t, http.MethodGet, "/export.csv?year=2020", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="filtered_data.csv"`)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "Year", records[0][0])
	for _, r := range records[1:] {
		assert.Equal(t, "2020", r[0])
	}

	rec = f.do(t, http.MethodGet, "/export.csv?filename=../x.csv", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportToStorage(t *testing.T) {
	f := newFixture(t, schema.Default())

	rec := f.do(t, http.MethodPost, "/export", url.Values{"topic": {"Diabetes"}, "filename": {"diabetes"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data exported to")

	data, err := f.storage.Read(context.Background(), "diabetes.csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestCustomSQL(t *testing.T) {
	f := newFixture(t, schema.Default())

	rec := f.do(t, http.MethodPost, "/sql", url.Values{"sql": {"SELECT Topic FROM Topic ORDER BY Topic"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>Alcohol</td>")

	rec = f.do(t, http.MethodPost, "/sql", url.Values{"sql": {"  "}})
	assert.Contains(t, rec.Body.String(), service.WarnEmptySQL)

	rec = f.do(t, http.MethodPost, "/sql", url.Values{"sql": {"SELECT * FROM Missing"}})
	assert.Contains(t, rec.Body.String(), "Error executing query:")
}

func TestAPIOptions(t *testing.T) {
	f := newFixture(t, schema.Hosted())

	rec := f.do(t, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp optionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Dimensions, 4)
	assert.Equal(t, "datasource", resp.Dimensions[3].Name)
	assert.Equal(t, "Data Source", resp.Dimensions[3].Label)
	assert.Equal(t, []string{"All", "BRFSS", "NVSS"}, resp.Dimensions[3].Values)
	assert.Empty(t, resp.Warnings)
}

func TestAPIData(t *testing.T) {
	f := newFixture(t, schema.Hosted())

	rec := f.do(t, http.MethodGet, "/api/data?filter="+url.QueryEscape(`datasource=NVSS`)+"&chart=bar", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.SQL, "WHERE DataSource.DataSource = ?")
	assert.Equal(t, []interface{}{"NVSS"}, resp.Args)
	assert.Len(t, resp.Rows, 3)
	require.NotNil(t, resp.Chart)
	assert.Equal(t, render.Bar, resp.Chart.Kind)

	rec = f.do(t, http.MethodGet, "/api/data?region=West", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/data?filter="+url.QueryEscape("year=2020 and bogus=1"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, schema.Default())

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.do(t, http.MethodGet, "/", nil)
	rec = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cdi_queries_total")
	assert.Contains(t, rec.Body.String(), "cdi_http_requests_total")

	require.NoError(t, f.db.Disconnect(context.Background()))
	rec = f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, schema.Default())

	require.NoError(t, f.server.Start())
	resp, err := http.Get(f.server.URL() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.server.Stop(context.Background()))
}

func TestExportName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "filtered_data.csv", false},
		{"report", "report.csv", false},
		{"Report.CSV", "Report.CSV", false},
		{"a/b.csv", "", true},
		{".hidden", "", true},
	}
	for _, tt := range tests {
		got, err := exportName(tt.in, DefaultExportFilename)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
