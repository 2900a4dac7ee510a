// Package snowflake owns the connection to the data platform: configuration,
// the long-lived session, and the row shape that introspection commands return.
package snowflake

import (
	"sort"
	"strings"
)

// Row is one result row of an introspection command. Column lookup is
// case-insensitive because SHOW/DESCRIBE column casing varies across
// platform versions. Column order is preserved from the result set.
type Row struct {
	cols []string
	vals map[string]any
}

// NewRow pairs column names with their values. Extra values are dropped,
// missing ones are left absent.
func NewRow(columns []string, values []any) Row {
	vals := make(map[string]any, len(columns))
	for i, col := range columns {
		if i < len(values) {
			vals[col] = values[i]
		}
	}
	return Row{cols: columns, vals: vals}
}

// RowOf builds a Row from a column→value map, ordering columns by name.
// Intended for constructing fixtures.
func RowOf(values map[string]any) Row {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	vals := make(map[string]any, len(values))
	for col, v := range values {
		vals[col] = v
	}
	return Row{cols: cols, vals: vals}
}

// Columns returns the column names in result-set order.
func (r Row) Columns() []string {
	return r.cols
}

// Value looks up a column by name, ignoring case. The second return
// reports whether the column exists at all.
func (r Row) Value(column string) (any, bool) {
	if v, ok := r.vals[column]; ok {
		return v, true
	}
	for col, v := range r.vals {
		if strings.EqualFold(col, column) {
			return v, true
		}
	}
	return nil, false
}
