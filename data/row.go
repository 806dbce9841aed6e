package data

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type (
	// Field is one named value used to build a Row
	Field struct {
		Name  string
		Value interface{}
	}

	// Literal is a raw SQL fragment, written into statements as-is
	Literal string

	// Row is an ordered, immutable column -> value mapping
	Row struct {
		columns []string
		values  map[string]interface{}
	}
)

// TimeLayout is the textual form of time values inside rows
const TimeLayout = "2006-01-02 15:04:05"

// NewRow builds a Row from fields. A repeated column keeps its first position
// and takes the last value.
func NewRow(fields ...Field) Row {
	row := Row{
		columns: make([]string, 0, len(fields)),
		values:  make(map[string]interface{}, len(fields)),
	}
	for _, f := range fields {
		if _, ok := row.values[f.Name]; !ok {
			row.columns = append(row.columns, f.Name)
		}
		row.values[f.Name] = Normalize(f.Value)
	}
	return row
}

// RowOf zips column names and values into a Row
func RowOf(columns []string, values []interface{}) Row {
	fields := make([]Field, 0, len(columns))
	for idx, column := range columns {
		var value interface{}
		if idx < len(values) {
			value = values[idx]
		}
		fields = append(fields, Field{column, value})
	}
	return NewRow(fields...)
}

// Columns returns the column names in order
func (r Row) Columns() []string {
	result := make([]string, len(r.columns))
	copy(result, r.columns)
	return result
}

// Len returns the number of columns
func (r Row) Len() int {
	return len(r.columns)
}

// Get returns a column value and whether the column is present
func (r Row) Get(column string) (interface{}, bool) {
	value, ok := r.values[column]
	return value, ok
}

// Value returns a column value, nil when missing
func (r Row) Value(column string) interface{} {
	return r.values[column]
}

// Has reports if the column is present
func (r Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Fields returns the row contents in column order
func (r Row) Fields() []Field {
	result := make([]Field, len(r.columns))
	for idx, column := range r.columns {
		result[idx] = Field{column, r.values[column]}
	}
	return result
}

// With returns a copy of the row with the column set
func (r Row) With(column string, value interface{}) Row {
	return NewRow(append(r.Fields(), Field{column, value})...)
}

// Equal compares column order and values
func (r Row) Equal(other Row) bool {
	if len(r.columns) != len(other.columns) {
		return false
	}
	for idx, column := range r.columns {
		if other.columns[idx] != column {
			return false
		}
		if fmt.Sprint(r.values[column]) != fmt.Sprint(other.values[column]) {
			return false
		}
	}
	return true
}

func (r Row) String() string {
	parts := make([]string, len(r.columns))
	for idx, column := range r.columns {
		parts[idx] = fmt.Sprintf("%s:%v", column, r.values[column])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Normalize maps driver and decoder values onto the row value types:
// string, int64, float64, bool, Literal, nil. Nested rows and lists are kept.
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(TimeLayout)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.Format(TimeLayout)
	case map[string]interface{}:
		return FromMap(v)
	}
	return value
}

// FromMap converts a plain map into a Row with sorted columns
func FromMap(m map[string]interface{}) Row {
	columns := make([]string, 0, len(m))
	for k := range m {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	fields := make([]Field, len(columns))
	for idx, column := range columns {
		fields[idx] = Field{column, m[column]}
	}
	return NewRow(fields...)
}
