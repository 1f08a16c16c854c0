package app

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/config"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/sample"
	"github.com/cdi-explorer/cdi/internal/core/schema"
)

func sqliteConfig() *config.Config {
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Provider: "sqlite"}
	cfg.Telemetry.Type = "noop"
	cfg.Export.Storage = "memory"
	return cfg
}

func TestNewDatabaseAdapter(t *testing.T) {
	tests := []struct {
		provider string
		dialect  domain.SQLDialect
	}{
		{"postgresql", domain.PostgreSQL},
		{"postgres", domain.PostgreSQL},
		{"mysql", domain.MySQL},
		{"sqlite", domain.SQLite},
		{"DuckDB", domain.DuckDB},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			db, err := NewDatabaseAdapter(config.DatabaseConfig{Provider: tt.provider})
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, db.GetDialect())
		})
	}

	_, err := NewDatabaseAdapter(config.DatabaseConfig{Provider: "oracle"})
	assert.ErrorContains(t, err, "unsupported database provider")
}

func TestContainer_Lifecycle(t *testing.T) {
	ctx := context.Background()

	c, err := NewContainer(sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	defer c.Close(ctx)

	require.NoError(t, sample.Seed(ctx, c.Database()))

	outcome := c.Explorer().Filter(ctx, domain.Selection{}.Set("year", "2019"))
	require.False(t, outcome.Failed())
	assert.Equal(t, 3, outcome.Result.Len())

	assert.Equal(t, "cdi", c.Schemas().Get().Name)
	assert.NotNil(t, c.Storage())
	assert.Nil(t, c.Telemetry().Handler())
}

func TestContainer_SchemaFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	prev := config.AppFs
	config.AppFs = fs
	t.Cleanup(func() { config.AppFs = prev })

	data, err := schema.Marshal(schema.Hosted())
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/cfg/schema.yaml", data, 0o644))

	cfg := sqliteConfig()
	cfg.Schema.Path = "/cfg/schema.yaml"
	c, err := NewContainer(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cdi-hosted", c.Explorer().Schema().Name)

	cfg.Schema.Path = "/cfg/missing.yaml"
	_, err = NewContainer(cfg)
	assert.Error(t, err)
}

func TestContainer_BadTelemetry(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Telemetry.Type = "statsd"
	_, err := NewContainer(cfg)
	assert.ErrorContains(t, err, "telemetry")
}
