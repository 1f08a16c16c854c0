package mysql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/adapters/database"
	"github.com/cdi-explorer/cdi/internal/adapters/database/mysql"
	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  database.Config
		want    []string
		wantErr bool
	}{
		{
			name:   "url",
			config: database.Config{URL: "mysql://cdi:secret@db:3307/cdi", ConnectTimeout: 5},
			want:   []string{"cdi:secret@tcp(db:3307)/cdi", "timeout=5s"},
		},
		{
			name:   "url default port",
			config: database.Config{URL: "mysql://cdi@db/cdi"},
			want:   []string{"cdi@tcp(db:3306)/cdi"},
		},
		{
			name:   "native dsn",
			config: database.Config{URL: "cdi:pw@tcp(localhost:3306)/cdi"},
			want:   []string{"cdi:pw@tcp(localhost:3306)/cdi"},
		},
		{name: "empty", config: database.Config{}, wantErr: true},
		{name: "garbage", config: database.Config{URL: "not a dsn"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mysql.DSN(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
		})
	}
}

func TestDialect(t *testing.T) {
	assert.Equal(t, domain.MySQL, mysql.NewMySQLAdapter(database.Config{}).GetDialect())
}
