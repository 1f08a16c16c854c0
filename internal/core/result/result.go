// Package result holds the rectangular row sets returned by the database.
package result

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Set is a rectangular result: column names plus rows in column order.
type Set struct {
	Columns []string
	Rows    [][]interface{}
}

// Empty returns a set with no columns and no rows.
func Empty() *Set {
	return &Set{Columns: []string{}, Rows: [][]interface{}{}}
}

// Len returns the number of rows.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// IsEmpty reports whether the set has no rows.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// ColumnIndex finds a column by exact name, then ignoring case. It returns
// -1 when the column is absent.
func (s *Set) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	for i, c := range s.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the set contains name.
func (s *Set) HasColumn(name string) bool {
	return s.ColumnIndex(name) >= 0
}

// Record returns row i as a column -> value map.
func (s *Set) Record(i int) map[string]interface{} {
	rec := make(map[string]interface{}, len(s.Columns))
	for j, c := range s.Columns {
		rec[c] = s.Rows[i][j]
	}
	return rec
}

// Strings returns every cell formatted with FormatValue.
func (s *Set) Strings() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

// Scan reads every row from rows into a Set. It does not close rows.
func Scan(rows *sql.Rows) (*Set, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	set := &Set{Columns: columns, Rows: [][]interface{}{}}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, v := range values {
			// Convert []byte to string
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		set.Rows = append(set.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return set, nil
}

// FormatValue renders a scanned value for display and export. NULL is empty.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// Float converts a scanned value to float64. ok is false for NULL, NaN,
// infinities and non-numeric values.
func Float(v interface{}) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		return f, err == nil
	default:
		f, err := strconv.ParseFloat(fmt.Sprint(val), 64)
		return f, err == nil
	}
}
