// Package schema describes the layout of the indicator dataset: the fact
// table, the dimension tables joined to it and the columns a filtered query
// returns. The layout is configuration so the local and hosted variants of
// the CDI database can share one query builder.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cdi-explorer/cdi/internal/core/query/domain"
)

// Schema is the dataset layout.
type Schema struct {
	Name       string      `yaml:"name"`
	Fact       string      `yaml:"fact"`
	Joins      []Join      `yaml:"joins"`
	Columns    []string    `yaml:"columns"`
	Dimensions []Dimension `yaml:"dimensions"`
	Geo        Geo         `yaml:"geo"`
}

// Join attaches a dimension table: JOIN Table ON Left = Right.
type Join struct {
	Table string `yaml:"table"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Dimension is a filterable lookup column.
type Dimension struct {
	Name   string `yaml:"name"`
	Label  string `yaml:"label"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Qualified returns Table.Column.
func (d Dimension) Qualified() string {
	return d.Table + "." + d.Column
}

// DisplayLabel returns the label, falling back to the column name.
func (d Dimension) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Column
}

// Geo names the result columns holding coordinates for map rendering.
type Geo struct {
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be placed unquoted in SQL text.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Dimension looks up a dimension by name, ignoring case.
func (s *Schema) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Dimension{}, false
}

// Tables returns the fact table followed by every joined table.
func (s *Schema) Tables() []string {
	tables := make([]string, 0, len(s.Joins)+1)
	tables = append(tables, s.Fact)
	for _, j := range s.Joins {
		tables = append(tables, j.Table)
	}
	return tables
}

// GeoColumns returns the latitude and longitude column names with defaults applied.
func (s *Schema) GeoColumns() (string, string) {
	lat, lon := s.Geo.Latitude, s.Geo.Longitude
	if lat == "" {
		lat = "Latitude"
	}
	if lon == "" {
		lon = "Longitude"
	}
	return lat, lon
}

// Validate checks that every identifier is safe and every reference resolves.
func (s *Schema) Validate() error {
	if !ValidIdentifier(s.Fact) {
		return fmt.Errorf("fact table %q: %w", s.Fact, domain.ErrInvalidIdentifier)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %q selects no columns", s.Name)
	}

	known := map[string]bool{strings.ToLower(s.Fact): true}
	for _, j := range s.Joins {
		if !ValidIdentifier(j.Table) {
			return fmt.Errorf("join table %q: %w", j.Table, domain.ErrInvalidIdentifier)
		}
		if err := validateQualified(j.Left); err != nil {
			return fmt.Errorf("join %s: %w", j.Table, err)
		}
		if err := validateQualified(j.Right); err != nil {
			return fmt.Errorf("join %s: %w", j.Table, err)
		}
		known[strings.ToLower(j.Table)] = true
	}

	for _, c := range s.Columns {
		if err := validateQualified(c); err != nil {
			return fmt.Errorf("column: %w", err)
		}
		table, _, _ := strings.Cut(c, ".")
		if !known[strings.ToLower(table)] {
			return fmt.Errorf("column %s references table %s which is not joined", c, table)
		}
	}

	seen := make(map[string]bool)
	for _, d := range s.Dimensions {
		if !ValidIdentifier(d.Name) {
			return fmt.Errorf("dimension name %q: %w", d.Name, domain.ErrInvalidIdentifier)
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return fmt.Errorf("duplicate dimension %q", d.Name)
		}
		seen[key] = true

		if !ValidIdentifier(d.Table) || !ValidIdentifier(d.Column) {
			return fmt.Errorf("dimension %s column %s: %w", d.Name, d.Qualified(), domain.ErrInvalidIdentifier)
		}
		if !known[strings.ToLower(d.Table)] {
			return fmt.Errorf("dimension %s uses table %s which is not joined", d.Name, d.Table)
		}
	}

	if s.Geo.Latitude != "" && !ValidIdentifier(s.Geo.Latitude) {
		return fmt.Errorf("geo latitude %q: %w", s.Geo.Latitude, domain.ErrInvalidIdentifier)
	}
	if s.Geo.Longitude != "" && !ValidIdentifier(s.Geo.Longitude) {
		return fmt.Errorf("geo longitude %q: %w", s.Geo.Longitude, domain.ErrInvalidIdentifier)
	}
	return nil
}

func validateQualified(ref string) error {
	table, column, ok := strings.Cut(ref, ".")
	if !ok || !ValidIdentifier(table) || !ValidIdentifier(column) {
		return fmt.Errorf("%q is not Table.Column: %w", ref, domain.ErrInvalidIdentifier)
	}
	return nil
}
