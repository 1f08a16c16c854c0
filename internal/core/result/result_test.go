package result_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdi-explorer/cdi/internal/core/result"
)

func sampleSet() *result.Set {
	return &result.Set{
		Columns: []string{"year", "locationdesc", "topic", "datavalue", "datavalueunit"},
		Rows: [][]interface{}{
			{int64(2019), "Ohio", "Diabetes", 10.5, "%"},
			{int64(2019), "New York, NY", "Alcohol", nil, "%"},
			{int64(2020), `Quote "town"`, "Asthma", 7.25, "cases per 1,000"},
		},
	}
}

func TestSet_ColumnIndex(t *testing.T) {
	s := sampleSet()

	assert.Equal(t, 0, s.ColumnIndex("year"))
	assert.Equal(t, 1, s.ColumnIndex("LocationDesc"))
	assert.Equal(t, -1, s.ColumnIndex("Latitude"))
	assert.True(t, s.HasColumn("DATAVALUE"))
}

func TestSet_EmptyAndNil(t *testing.T) {
	var s *result.Set
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.True(t, result.Empty().IsEmpty())
	assert.Equal(t, 3, sampleSet().Len())
}

func TestSet_Record(t *testing.T) {
	rec := sampleSet().Record(0)
	assert.Equal(t, "Ohio", rec["locationdesc"])
	assert.Equal(t, 10.5, rec["datavalue"])
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("raw"), "raw"},
		{10.5, "10.5"},
		{float32(2.5), "2.5"},
		{int64(42), "42"},
		{7, "7"},
		{true, "true"},
		{ts, "2021-03-04T05:06:07Z"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, result.FormatValue(tt.in))
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   float64
		wantOK bool
	}{
		{nil, 0, false},
		{12.5, 12.5, true},
		{int64(3), 3, true},
		{" 4.75 ", 4.75, true},
		{[]byte("9"), 9, true},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		got, ok := result.Float(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	set := sampleSet()

	var buf bytes.Buffer
	require.NoError(t, result.WriteCSV(&buf, set))

	back, err := result.ReadCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, set.Columns, back.Columns)
	assert.Equal(t, set.Strings(), back.Strings())
}

func TestCSV_SingleColumnEmptyCells(t *testing.T) {
	tests := []struct {
		name string
		set  *result.Set
		want string
	}{
		{
			name: "null value",
			set: &result.Set{
				Columns: []string{"DataValue"},
				Rows:    [][]interface{}{{"1"}, {nil}, {"3"}},
			},
			want: "DataValue\n1\n\"\"\n3\n",
		},
		{
			name: "empty header",
			set: &result.Set{
				Columns: []string{""},
				Rows:    [][]interface{}{{"x"}, {""}},
			},
			want: "\"\"\nx\n\"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, result.WriteCSV(&buf, tt.set))
			assert.Equal(t, tt.want, buf.String())

			back, err := result.ReadCSV(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.set.Columns, back.Columns)
			assert.Equal(t, tt.set.Strings(), back.Strings())
		})
	}
}

func TestCSV_NoIndexColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, result.WriteCSV(&buf, sampleSet()))

	firstLine, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "year,locationdesc,topic,datavalue,datavalueunit", firstLine)
}

func TestCSV_EmptyInput(t *testing.T) {
	back, err := result.ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, back.IsEmpty())
	assert.Empty(t, back.Columns)
}

func TestCSV_HeaderOnly(t *testing.T) {
	set := &result.Set{Columns: []string{"a", "b"}, Rows: [][]interface{}{}}

	var buf bytes.Buffer
	require.NoError(t, result.WriteCSV(&buf, set))

	back, err := result.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, back.Columns)
	assert.Equal(t, 0, back.Len())
}
