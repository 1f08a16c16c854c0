package schema_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
	"github.com/cdi-explorer/cdi/internal/core/schema"
)

const hostedYAML = `
name: cdi-hosted
fact: CDI
joins:
  - table: Location
    left: CDI.LocationID
    right: Location.LocationID
  - table: DataSource
    left: CDI.DataSourceID
    right: DataSource.DataSourceID
columns:
  - CDI.YearStart
  - Location.LocationDesc
  - DataSource.DataSource
  - CDI.DataValue
  - Location.Latitude
  - Location.Longitude
dimensions:
  - name: year
    label: Year
    table: CDI
    column: YearStart
  - name: location
    table: Location
    column: LocationDesc
  - name: datasource
    label: Data Source
    table: DataSource
    column: DataSource
geo:
  latitude: Latitude
  longitude: Longitude
`

func TestDefault_IsValid(t *testing.T) {
	s := schema.Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"DataValue", "Year", "Location", "Question", "Topic"}, s.Tables())

	d, ok := s.Dimension("LOCATION")
	require.True(t, ok)
	assert.Equal(t, "Location.LocationDesc", d.Qualified())
}

func TestParse_Hosted(t *testing.T) {
	s, err := schema.Parse([]byte(hostedYAML))
	require.NoError(t, err)

	assert.Equal(t, "CDI", s.Fact)
	require.Len(t, s.Dimensions, 3)
	d, ok := s.Dimension("datasource")
	require.True(t, ok)
	assert.Equal(t, "Data Source", d.DisplayLabel())

	loc, _ := s.Dimension("location")
	assert.Equal(t, "LocationDesc", loc.DisplayLabel())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *schema.Schema)
		wantErr error
	}{
		{
			name:    "injected fact table",
			mutate:  func(s *schema.Schema) { s.Fact = "DataValue; DROP TABLE Year" },
			wantErr: domain.ErrInvalidIdentifier,
		},
		{
			name:    "unqualified column",
			mutate:  func(s *schema.Schema) { s.Columns = append(s.Columns, "Year") },
			wantErr: domain.ErrInvalidIdentifier,
		},
		{
			name:    "bad dimension column",
			mutate:  func(s *schema.Schema) { s.Dimensions[0].Column = "Year--" },
			wantErr: domain.ErrInvalidIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := schema.Default()
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_References(t *testing.T) {
	t.Run("duplicate dimension", func(t *testing.T) {
		s := schema.Default()
		s.Dimensions = append(s.Dimensions, schema.Dimension{Name: "Year", Table: "Year", Column: "Year"})
		assert.ErrorContains(t, s.Validate(), "duplicate dimension")
	})

	t.Run("dimension on unjoined table", func(t *testing.T) {
		s := schema.Default()
		s.Dimensions = append(s.Dimensions, schema.Dimension{Name: "source", Table: "DataSource", Column: "DataSource"})
		assert.ErrorContains(t, s.Validate(), "not joined")
	})

	t.Run("column on unjoined table", func(t *testing.T) {
		s := schema.Default()
		s.Columns = append(s.Columns, "Stratification.Stratification1")
		assert.ErrorContains(t, s.Validate(), "not joined")
	})
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.yaml", []byte(hostedYAML), 0o644))

	s, err := schema.Load(fs, "schema.yaml")
	require.NoError(t, err)
	assert.Equal(t, "cdi-hosted", s.Name)

	def, err := schema.Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "cdi", def.Name)

	_, err = schema.Load(fs, "missing.yaml")
	assert.Error(t, err)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := schema.Parse([]byte("name: x\nfact: DataValue\ncolumns: [DataValue.DataValue]\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := schema.Marshal(schema.Default())
	require.NoError(t, err)

	back, err := schema.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, schema.Default(), back)
}

func TestHolder_Swap(t *testing.T) {
	h := schema.NewHolder(schema.Default())
	assert.Equal(t, "cdi", h.Get().Name)

	s, err := schema.Parse([]byte(hostedYAML))
	require.NoError(t, err)
	h.Swap(s)
	assert.Equal(t, "cdi-hosted", h.Get().Name)
}

func TestHosted(t *testing.T) {
	s := schema.Hosted()
	require.NoError(t, s.Validate())
	assert.Contains(t, s.Tables(), "DataSource")

	d, ok := s.Dimension("datasource")
	require.True(t, ok)
	assert.Equal(t, "DataSource.DataSource", d.Qualified())

	// Hosted must not leak into the default layout.
	assert.Len(t, schema.Default().Dimensions, 3)
}

func TestHosted_MatchesShippedFile(t *testing.T) {
	s, err := schema.Load(afero.NewOsFs(), "../../../configs/schema.hosted.yaml")
	require.NoError(t, err)
	assert.Equal(t, schema.Hosted(), s)
}
